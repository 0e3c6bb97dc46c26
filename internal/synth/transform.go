package synth

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/schema"
)

// durationTransform parses colon-separated duration text. The field count
// is fixed by the enabled components: [days:]hours:minutes:seconds[:ms].
func durationTransform(field string, cfg schema.DurationSelector) command.TransformFunc {
	arity := 3
	if cfg.EnableDay {
		arity++
	}
	if cfg.EnableMillisecond {
		arity++
	}

	return func(value string) (any, error) {
		parts := strings.Split(strings.TrimSpace(value), ":")
		if len(parts) != arity {
			return nil, invalid(field, "expected %d colon-separated components, got %d", arity, len(parts))
		}

		nums := make([]int, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 {
				return nil, invalid(field, "component %q is not a non-negative integer", p)
			}
			nums[i] = n
		}

		out := make(map[string]int, arity)
		i := 0
		if cfg.EnableDay {
			out["days"] = nums[i]
			i++
			if nums[i] > 23 {
				return nil, invalid(field, "hours must be 0-23 when days are given")
			}
		}
		out["hours"] = nums[i]
		i++
		if nums[i] > 59 {
			return nil, invalid(field, "minutes must be 0-59")
		}
		out["minutes"] = nums[i]
		i++
		if nums[i] > 59 {
			return nil, invalid(field, "seconds must be 0-59")
		}
		out["seconds"] = nums[i]
		i++
		if cfg.EnableMillisecond {
			if nums[i] > 999 {
				return nil, invalid(field, "milliseconds must be 0-999")
			}
			out["milliseconds"] = nums[i]
		}
		return out, nil
	}
}

// locationTransform parses "latitude;longitude" with an optional ";radius"
// third component.
func locationTransform(field string, cfg schema.LocationSelector) command.TransformFunc {
	return func(value string) (any, error) {
		parts := strings.Split(strings.TrimSpace(value), ";")
		if len(parts) != 2 && !(cfg.Radius && len(parts) == 3) {
			return nil, invalid(field, "expected latitude;longitude%s", radiusHint(cfg.Radius))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, invalid(field, "latitude must be a number in [-90, 90]")
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, invalid(field, "longitude must be a number in [-180, 180]")
		}

		out := map[string]any{"latitude": lat, "longitude": lon}
		if len(parts) == 3 {
			radius, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
			if err != nil || radius < 0 {
				return nil, invalid(field, "radius must be a non-negative number")
			}
			out["radius"] = radius
		}
		return out, nil
	}
}

func radiusHint(radius bool) string {
	if radius {
		return " with optional ;radius"
	}
	return ""
}

// objectTransform parses free-form structured text, trying YAML first and
// JSON second.
func objectTransform(field string) command.TransformFunc {
	return func(value string) (any, error) {
		var fromYAML any
		if err := yaml.Unmarshal([]byte(value), &fromYAML); err == nil {
			return fromYAML, nil
		}
		var fromJSON any
		if err := json.Unmarshal([]byte(value), &fromJSON); err == nil {
			return fromJSON, nil
		}
		return nil, invalid(field, "not parseable as YAML or JSON")
	}
}

// selectTransform validates membership in the allowed option set. With
// customValue set, unknown values pass through untouched.
func selectTransform(field string, allowed []string, customValue bool) command.TransformFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return func(value string) (any, error) {
		if _, ok := set[value]; ok || customValue {
			return value, nil
		}
		return nil, invalid(field, "%q is not one of the allowed options", value)
	}
}

// colorRGBTransform parses "r,g,b" with each channel in 0-255.
func colorRGBTransform(field string) command.TransformFunc {
	return func(value string) (any, error) {
		parts := strings.Split(strings.TrimSpace(value), ",")
		if len(parts) != 3 {
			return nil, invalid(field, "expected red,green,blue")
		}
		rgb := make([]int, 3)
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return nil, invalid(field, "channel %q must be an integer in 0-255", p)
			}
			rgb[i] = n
		}
		return rgb, nil
	}
}

// dateTransform validates "YYYY-MM-DD" and passes the string through.
func dateTransform(field string) command.TransformFunc {
	return func(value string) (any, error) {
		v := strings.TrimSpace(value)
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return nil, invalid(field, "expected YYYY-MM-DD")
		}
		return v, nil
	}
}

// timeTransform validates "HH:MM:SS", or "HH:MM" when seconds are
// disabled, normalizing the short form.
func timeTransform(field string, cfg schema.TimeSelector) command.TransformFunc {
	return func(value string) (any, error) {
		v := strings.TrimSpace(value)
		if cfg.NoSecond {
			if _, err := time.Parse("15:04", v); err == nil {
				return v + ":00", nil
			}
		}
		if _, err := time.Parse("15:04:05", v); err != nil {
			if cfg.NoSecond {
				return nil, invalid(field, "expected HH:MM")
			}
			return nil, invalid(field, "expected HH:MM:SS")
		}
		return v, nil
	}
}

// datetimeTransform validates "YYYY-MM-DD HH:MM:SS" and passes the string
// through.
func datetimeTransform(field string) command.TransformFunc {
	return func(value string) (any, error) {
		v := strings.TrimSpace(value)
		if _, err := time.Parse("2006-01-02 15:04:05", v); err != nil {
			return nil, invalid(field, "expected YYYY-MM-DD HH:MM:SS")
		}
		return v, nil
	}
}
