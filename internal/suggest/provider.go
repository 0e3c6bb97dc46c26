package suggest

import (
	"context"
	"unicode/utf8"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/fuzzy"
	"github.com/hassbridge/hassbridge-core/internal/relation"
)

// Labels longer than this are shortened before presentation.
const maxLabelLen = 100

// Logger defines the logging interface used by suggestion providers.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Source builds suggestion callbacks over the collection directory.
type Source struct {
	dir      relation.Directory
	resolver *relation.Resolver
	ranker   fuzzy.Ranker
	logger   Logger
}

// New creates a Source. maxChoices and tolerance configure the shared
// ranker.
func New(dir relation.Directory, resolver *relation.Resolver, maxChoices int, tolerance float64) *Source {
	return &Source{
		dir:      dir,
		resolver: resolver,
		ranker:   fuzzy.Ranker{MaxChoices: maxChoices, Tolerance: tolerance},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the source.
func (s *Source) SetLogger(logger Logger) {
	s.logger = logger
}

// candidate pairs a presentable choice with the texts it is matched on.
type candidate struct {
	choice command.Choice
	texts  []string
}

// rank scores the candidates and materializes the kept choices.
func (s *Source) rank(query string, cands []candidate) []command.Choice {
	texts := make([][]string, len(cands))
	for i, c := range cands {
		texts[i] = c.texts
	}
	kept := s.ranker.Rank(query, texts)
	out := make([]command.Choice, len(kept))
	for i, k := range kept {
		out[i] = cands[k.Index].choice
	}
	return out
}

// Entities returns a provider suggesting entities, narrowed by the given
// filters.
func (s *Source) Entities(entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		return s.rank(query, s.entityCandidates(ctx, entityFilters, deviceFilters))
	}
}

func (s *Source) entityCandidates(ctx context.Context, entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) []candidate {
	entities, err := s.dir.Entities(ctx)
	if err != nil {
		s.logger.Warn("entity suggestions unavailable", "error", err)
		return nil
	}
	allowed := s.resolver.Resolve(ctx, entityFilters, deviceFilters).Entities

	cands := make([]candidate, 0, len(entities))
	for _, e := range entities {
		if !allowed.Contains(e.EntityID) {
			continue
		}
		label := e.EntityID
		texts := []string{e.EntityID}
		if name, ok := e.FriendlyName(); ok && name != "" {
			label = name + " (" + e.EntityID + ")"
			texts = append(texts, name)
		}
		cands = append(cands, candidate{
			choice: command.Choice{Label: shorten(label), Value: e.EntityID},
			texts:  texts,
		})
	}
	return cands
}

// Devices returns a provider suggesting devices, narrowed by the given
// filters.
func (s *Source) Devices(entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		return s.rank(query, s.deviceCandidates(ctx, entityFilters, deviceFilters))
	}
}

func (s *Source) deviceCandidates(ctx context.Context, entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) []candidate {
	devices, err := s.dir.Devices(ctx)
	if err != nil {
		s.logger.Warn("device suggestions unavailable", "error", err)
		return nil
	}
	allowed := s.resolver.Resolve(ctx, entityFilters, deviceFilters).Devices

	cands := make([]candidate, 0, len(devices))
	for _, d := range devices {
		if !allowed.Contains(d.ID) {
			continue
		}
		name := d.DisplayName()
		if name == "" {
			name = d.ID
		}
		cands = append(cands, candidate{
			choice: command.Choice{Label: shorten(name), Value: d.ID},
			texts:  []string{name, d.ID},
		})
	}
	return cands
}

// Areas returns a provider suggesting areas.
func (s *Source) Areas(entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		return s.rank(query, s.areaCandidates(ctx, entityFilters, deviceFilters))
	}
}

func (s *Source) areaCandidates(ctx context.Context, entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) []candidate {
	areas, err := s.dir.Areas(ctx)
	if err != nil {
		s.logger.Warn("area suggestions unavailable", "error", err)
		return nil
	}
	allowed := s.resolver.Resolve(ctx, entityFilters, deviceFilters).Areas

	cands := make([]candidate, 0, len(areas))
	for _, a := range areas {
		if !allowed.Contains(a.ID) {
			continue
		}
		cands = append(cands, candidate{
			choice: command.Choice{Label: shorten(a.Name), Value: a.ID},
			texts:  []string{a.Name, a.ID},
		})
	}
	return cands
}

// Floors returns a provider suggesting floors.
func (s *Source) Floors(entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		return s.rank(query, s.floorCandidates(ctx, entityFilters, deviceFilters))
	}
}

func (s *Source) floorCandidates(ctx context.Context, entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) []candidate {
	floors, err := s.dir.Floors(ctx)
	if err != nil {
		s.logger.Warn("floor suggestions unavailable", "error", err)
		return nil
	}
	allowed := s.resolver.Resolve(ctx, entityFilters, deviceFilters).Floors

	cands := make([]candidate, 0, len(floors))
	for _, f := range floors {
		if !allowed.Contains(f.ID) {
			continue
		}
		cands = append(cands, candidate{
			choice: command.Choice{Label: shorten(f.Name), Value: f.ID},
			texts:  []string{f.Name, f.ID},
		})
	}
	return cands
}

// Labels returns a provider suggesting labels.
func (s *Source) Labels(entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		return s.rank(query, s.labelCandidates(ctx, entityFilters, deviceFilters))
	}
}

func (s *Source) labelCandidates(ctx context.Context, entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) []candidate {
	labels, err := s.dir.Labels(ctx)
	if err != nil {
		s.logger.Warn("label suggestions unavailable", "error", err)
		return nil
	}
	allowed := s.resolver.Resolve(ctx, entityFilters, deviceFilters).Labels

	cands := make([]candidate, 0, len(labels))
	for _, l := range labels {
		if !allowed.Contains(l.ID) {
			continue
		}
		cands = append(cands, candidate{
			choice: command.Choice{Label: shorten(l.Name), Value: l.ID},
			texts:  []string{l.Name, l.ID},
		})
	}
	return cands
}

// Targets returns a provider mixing all five collection kinds behind
// prefix-tagged values, for composite target fields.
func (s *Source) Targets(entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		var cands []candidate
		cands = appendTagged(cands, TargetArea, s.areaCandidates(ctx, entityFilters, deviceFilters))
		cands = appendTagged(cands, TargetFloor, s.floorCandidates(ctx, entityFilters, deviceFilters))
		cands = appendTagged(cands, TargetLabel, s.labelCandidates(ctx, entityFilters, deviceFilters))
		cands = appendTagged(cands, TargetDevice, s.deviceCandidates(ctx, entityFilters, deviceFilters))
		cands = appendTagged(cands, TargetEntity, s.entityCandidates(ctx, entityFilters, deviceFilters))
		return s.rank(query, cands)
	}
}

func appendTagged(dst []candidate, kind string, cands []candidate) []candidate {
	for _, c := range cands {
		c.choice.Value = EncodeTarget(kind, c.choice.Value)
		dst = append(dst, c)
	}
	return dst
}

// Static returns a provider ranking a fixed choice list, for enumerated
// selectors too large to register as literal options and for icon pickers.
func (s *Source) Static(choices []command.Choice) command.SuggestFunc {
	cands := make([]candidate, len(choices))
	for i, c := range choices {
		c.Label = shorten(c.Label)
		cands[i] = candidate{choice: c, texts: []string{c.Label, c.Value}}
	}
	return func(ctx context.Context, userID, query string) []command.Choice {
		return s.rank(query, cands)
	}
}

// shorten truncates a label to the presentation cap, marking the cut.
func shorten(label string) string {
	if len(label) <= maxLabelLen {
		return label
	}
	cut := maxLabelLen - 3
	for cut > 0 && !utf8.RuneStart(label[cut]) {
		cut--
	}
	return label[:cut] + "..."
}
