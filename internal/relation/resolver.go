package relation

import (
	"context"

	"github.com/hassbridge/hassbridge-core/internal/hass"
)

// Directory provides the point-in-time collection snapshots the resolver
// filters. Implementations are expected to cache; every call may be served
// from a snapshot but must return independent copies.
type Directory interface {
	Entities(ctx context.Context) ([]hass.Entity, error)
	Devices(ctx context.Context) ([]hass.Device, error)
	Areas(ctx context.Context) ([]hass.Area, error)
	Floors(ctx context.Context) ([]hass.Floor, error)
	Labels(ctx context.Context) ([]hass.Label, error)
	IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error)
}

// Logger defines the logging interface used by the Resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// EntityFilter narrows the entity set. Fields are AND'd within a filter;
// filters in a list are OR'd. An entirely empty filter narrows nothing.
type EntityFilter struct {
	// Integration keeps only entities owned by this integration.
	Integration string

	// Domains keeps only entities whose domain matches exactly (case
	// sensitive).
	Domains []string

	// DeviceClasses keeps only entities whose device_class attribute is
	// listed. Entities without the attribute are excluded.
	DeviceClasses []string

	// SupportedFeatures keeps entities whose capability bitflags overlap
	// any listed flag (any-of semantics).
	SupportedFeatures []int64
}

// IsZero reports whether no field is supplied.
func (f EntityFilter) IsZero() bool {
	return f.Integration == "" && len(f.Domains) == 0 && len(f.DeviceClasses) == 0 && len(f.SupportedFeatures) == 0
}

// DeviceFilter narrows the device set. Fields are AND'd within a filter;
// filters in a list are OR'd.
type DeviceFilter struct {
	// Integration keeps only devices owning at least one entity of this
	// integration (membership proxy — devices carry no integration field).
	Integration string

	Manufacturer string
	Model        string
	ModelID      string
}

// IsZero reports whether no field is supplied.
func (f DeviceFilter) IsZero() bool {
	return f.Integration == "" && f.Manufacturer == "" && f.Model == "" && f.ModelID == ""
}

// Result holds the matching ID set per level. Levels untouched by any
// filter stay Unconstrained.
type Result struct {
	Entities IDSet
	Devices  IDSet
	Areas    IDSet
	Floors   IDSet
	Labels   IDSet
}

// Resolver computes matching ID sets for filter criteria.
type Resolver struct {
	dir    Directory
	logger Logger
}

// NewResolver creates a Resolver over the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir, logger: noopLogger{}}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Resolve computes the matching sets for the given filters, bottom-up.
//
// With no filters at all every level is Unconstrained. A fetch failure at
// any level resolves that level to an explicit empty set (fail closed); no
// error is ever returned to the caller.
func (r *Resolver) Resolve(ctx context.Context, entityFilters []EntityFilter, deviceFilters []DeviceFilter) Result {
	res := Result{
		Entities: Unconstrained(),
		Devices:  Unconstrained(),
		Areas:    Unconstrained(),
		Floors:   Unconstrained(),
		Labels:   Unconstrained(),
	}

	res.Entities = r.resolveEntities(ctx, entityFilters)
	res.Devices = r.resolveDevices(ctx, res.Entities, deviceFilters)
	res.Areas = r.resolveAreas(ctx, res.Entities, res.Devices)
	res.Floors = r.resolveFloors(ctx, res.Areas)
	res.Labels = r.resolveLabels(ctx, res.Entities, res.Devices, res.Areas)

	return res
}

// resolveEntities narrows the entity snapshot by the OR'd filter list.
// Entirely empty filters are dropped first; a list of only empty filters
// constrains nothing.
func (r *Resolver) resolveEntities(ctx context.Context, filters []EntityFilter) IDSet {
	active := make([]EntityFilter, 0, len(filters))
	for _, f := range filters {
		if !f.IsZero() {
			active = append(active, f)
		}
	}
	filters = active
	if len(filters) == 0 {
		return Unconstrained()
	}

	entities, err := r.dir.Entities(ctx)
	if err != nil {
		r.logger.Warn("entity snapshot unavailable, failing closed", "error", err)
		return EmptySet()
	}

	matched := EmptySet()
	for _, filter := range filters {
		var integrationIDs map[string]struct{}
		if filter.Integration != "" {
			ids, err := r.dir.IntegrationEntityIDs(ctx, filter.Integration)
			if err != nil {
				r.logger.Warn("integration lookup unavailable, filter matches nothing",
					"integration", filter.Integration, "error", err)
				continue
			}
			integrationIDs = make(map[string]struct{}, len(ids))
			for _, id := range ids {
				integrationIDs[id] = struct{}{}
			}
		}

		for _, e := range entities {
			if entityMatches(e, filter, integrationIDs) {
				matched.add(e.EntityID)
			}
		}
	}
	return matched
}

func entityMatches(e hass.Entity, f EntityFilter, integrationIDs map[string]struct{}) bool {
	if integrationIDs != nil {
		if _, ok := integrationIDs[e.EntityID]; !ok {
			return false
		}
	}

	if len(f.Domains) > 0 && !containsString(f.Domains, e.Domain()) {
		return false
	}

	if len(f.DeviceClasses) > 0 {
		class, ok := e.DeviceClass()
		if !ok || !containsString(f.DeviceClasses, class) {
			return false
		}
	}

	if len(f.SupportedFeatures) > 0 {
		flags := e.SupportedFeatures()
		any := false
		for _, required := range f.SupportedFeatures {
			if required&flags != 0 {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}

	return true
}

// resolveDevices narrows the device snapshot by matching entities and the
// OR'd device filter list. Entirely empty filters are dropped first.
func (r *Resolver) resolveDevices(ctx context.Context, entities IDSet, filters []DeviceFilter) IDSet {
	active := make([]DeviceFilter, 0, len(filters))
	for _, f := range filters {
		if !f.IsZero() {
			active = append(active, f)
		}
	}
	filters = active
	if !entities.Constrained() && len(filters) == 0 {
		return Unconstrained()
	}

	devices, err := r.dir.Devices(ctx)
	if err != nil {
		r.logger.Warn("device snapshot unavailable, failing closed", "error", err)
		return EmptySet()
	}

	// Base set: all devices, or owners of at least one matching entity.
	base := make([]hass.Device, 0, len(devices))
	for _, d := range devices {
		if !entities.Constrained() || entities.containsAny(d.Entities) {
			base = append(base, d)
		}
	}

	if len(filters) == 0 {
		matched := EmptySet()
		for _, d := range base {
			matched.add(d.ID)
		}
		return matched
	}

	matched := EmptySet()
	for _, filter := range filters {
		var integrationIDs map[string]struct{}
		if filter.Integration != "" {
			ids, err := r.dir.IntegrationEntityIDs(ctx, filter.Integration)
			if err != nil {
				r.logger.Warn("integration lookup unavailable, filter matches nothing",
					"integration", filter.Integration, "error", err)
				continue
			}
			integrationIDs = make(map[string]struct{}, len(ids))
			for _, id := range ids {
				integrationIDs[id] = struct{}{}
			}
		}

		for _, d := range base {
			if deviceMatches(d, filter, integrationIDs) {
				matched.add(d.ID)
			}
		}
	}
	return matched
}

func deviceMatches(d hass.Device, f DeviceFilter, integrationIDs map[string]struct{}) bool {
	if integrationIDs != nil {
		owned := false
		for _, id := range d.Entities {
			if _, ok := integrationIDs[id]; ok {
				owned = true
				break
			}
		}
		if !owned {
			return false
		}
	}
	if f.Manufacturer != "" && d.Manufacturer != f.Manufacturer {
		return false
	}
	if f.Model != "" && d.Model != f.Model {
		return false
	}
	if f.ModelID != "" && d.ModelID != f.ModelID {
		return false
	}
	return true
}

// resolveAreas marks areas owning a matching device or a matching entity.
// Only constrained lower sets participate in the check.
func (r *Resolver) resolveAreas(ctx context.Context, entities, devices IDSet) IDSet {
	if !entities.Constrained() && !devices.Constrained() {
		return Unconstrained()
	}

	areas, err := r.dir.Areas(ctx)
	if err != nil {
		r.logger.Warn("area snapshot unavailable, failing closed", "error", err)
		return EmptySet()
	}

	matched := EmptySet()
	for _, a := range areas {
		if devices.Constrained() && devices.containsAny(a.Devices) {
			matched.add(a.ID)
			continue
		}
		if entities.Constrained() && entities.containsAny(a.Entities) {
			matched.add(a.ID)
		}
	}
	return matched
}

// resolveFloors marks floors owning a matching area.
func (r *Resolver) resolveFloors(ctx context.Context, areas IDSet) IDSet {
	if !areas.Constrained() {
		return Unconstrained()
	}

	floors, err := r.dir.Floors(ctx)
	if err != nil {
		r.logger.Warn("floor snapshot unavailable, failing closed", "error", err)
		return EmptySet()
	}

	matched := EmptySet()
	for _, f := range floors {
		if areas.containsAny(f.Areas) {
			matched.add(f.ID)
		}
	}
	return matched
}

// resolveLabels marks labels whose attachments intersect a constrained
// lower set. Checks run areas first, then devices, then entities; the first
// hit wins per label.
func (r *Resolver) resolveLabels(ctx context.Context, entities, devices, areas IDSet) IDSet {
	if !entities.Constrained() && !devices.Constrained() && !areas.Constrained() {
		return Unconstrained()
	}

	labels, err := r.dir.Labels(ctx)
	if err != nil {
		r.logger.Warn("label snapshot unavailable, failing closed", "error", err)
		return EmptySet()
	}

	matched := EmptySet()
	for _, l := range labels {
		switch {
		case areas.Constrained() && areas.containsAny(l.Areas):
			matched.add(l.ID)
		case devices.Constrained() && devices.containsAny(l.Devices):
			matched.add(l.ID)
		case entities.Constrained() && entities.containsAny(l.Entities):
			matched.add(l.ID)
		}
	}
	return matched
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
