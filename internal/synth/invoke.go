package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/schema"
	"github.com/hassbridge/hassbridge-core/internal/suggest"
)

// Target kinds map to the ID-list keys the upstream call accepts.
var targetKeys = map[string]string{
	suggest.TargetArea:   "area_id",
	suggest.TargetDevice: "device_id",
	suggest.TargetEntity: "entity_id",
	suggest.TargetFloor:  "floor_id",
	suggest.TargetLabel:  "label_id",
}

// invokeFunc builds the submission handler for one synthesized service.
func (b *Builder) invokeFunc(svc schema.Service, plans []fieldPlan) command.InvokeFunc {
	return func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
		data := make(map[string]any)

		for _, plan := range plans {
			raw, ok := args[plan.key]
			if !ok || raw == nil {
				continue
			}

			if plan.constant != nil {
				// Constant toggles inject the declared value when enabled
				// and vanish entirely otherwise.
				if enabled, _ := raw.(bool); enabled {
					data[plan.key] = plan.constant
				}
				continue
			}

			if plan.multi {
				shortID, ok := raw.(string)
				if !ok {
					return nil, invalid(plan.key, "expected a selection token")
				}
				values, err := b.protocol.Store().Resolve(shortID, userID)
				if err != nil {
					return nil, err
				}
				if plan.target {
					expandTarget(data, values)
					continue
				}
				transformed, err := transformAll(plan.transform, values)
				if err != nil {
					return nil, err
				}
				data[plan.key] = transformed
				continue
			}

			value, err := applyPlan(plan, raw)
			if err != nil {
				return nil, err
			}
			data[plan.key] = value
		}

		result, err := b.invoker.CallService(ctx, svc.Domain, svc.Name, data, svc.SupportsResponse)
		if svc.SupportsResponse && errors.Is(err, hass.ErrResponseUnsupported) {
			// Only the specific unsupported signal downgrades to a plain
			// trigger; every other failure surfaces.
			result, err = b.invoker.CallService(ctx, svc.Domain, svc.Name, data, false)
		}
		if err != nil {
			return nil, fmt.Errorf("action %s.%s failed: %w", svc.Domain, svc.Name, err)
		}

		return buildResult(svc, result), nil
	}
}

// applyPlan runs the transform and bounds check for a single value.
func applyPlan(plan fieldPlan, raw any) (any, error) {
	if s, ok := raw.(string); ok && plan.transform != nil {
		return plan.transform(s)
	}

	if f, ok := asFloat(raw); ok {
		if plan.min != nil && f < *plan.min {
			return nil, invalid(plan.key, "must be at least %v", *plan.min)
		}
		if plan.max != nil && f > *plan.max {
			return nil, invalid(plan.key, "must be at most %v", *plan.max)
		}
	}
	return raw, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// transformAll applies a transform to every accumulated value.
func transformAll(transform command.TransformFunc, values []string) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if transform == nil {
			out[i] = v
			continue
		}
		t, err := transform(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// expandTarget decodes prefix-tagged target values into per-kind ID lists.
// Values with an unknown prefix are dropped silently.
func expandTarget(data map[string]any, values []string) {
	lists := make(map[string][]string)
	for _, v := range values {
		kind, id, ok := suggest.DecodeTarget(v)
		if !ok {
			continue
		}
		key := targetKeys[kind]
		lists[key] = append(lists[key], id)
	}
	for key, ids := range lists {
		data[key] = ids
	}
}

// buildResult shapes the upstream call result for the caller.
func buildResult(svc schema.Service, result *hass.ServiceCallResult) *command.Result {
	out := &command.Result{
		Message: fmt.Sprintf("%s.%s completed", svc.Domain, svc.Name),
	}
	if result == nil {
		return out
	}
	for _, e := range result.ChangedEntities {
		out.ChangedEntities = append(out.ChangedEntities, e.EntityID)
	}
	if len(result.Response) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(result.Response, &decoded); err == nil {
			out.Response = decoded
		}
	}
	return out
}
