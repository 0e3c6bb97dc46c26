package suggest

import "strings"

// Target kind tags. A composite target value is "<KIND>$<id>"; the prefix
// tells the submission path which per-kind ID list the value expands into.
const (
	TargetArea   = "AREA"
	TargetDevice = "DEVICE"
	TargetEntity = "ENTITY"
	TargetFloor  = "FLOOR"
	TargetLabel  = "LABEL"
)

const targetSep = "$"

// EncodeTarget renders a prefix-tagged composite target value.
func EncodeTarget(kind, id string) string {
	return kind + targetSep + id
}

// DecodeTarget splits a composite target value into its kind tag and ID.
// Returns false for values with no separator or an unknown kind tag; the
// caller drops those silently.
func DecodeTarget(value string) (kind, id string, ok bool) {
	kind, id, found := strings.Cut(value, targetSep)
	if !found {
		return "", "", false
	}
	switch kind {
	case TargetArea, TargetDevice, TargetEntity, TargetFloor, TargetLabel:
		return kind, id, true
	default:
		return "", "", false
	}
}
