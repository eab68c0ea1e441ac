package model

import "fmt"

// Type is the closed set of notification classes the club platform emits.
type Type string

const (
	TypeNewLike      Type = "new_like"
	TypeNewComment   Type = "new_comment"
	TypeNewDiscount  Type = "new_discount"
	TypeStatusChange Type = "status_change"
	TypeExpiringSoon Type = "expiring_soon"
)

// metadataKeys lists the metadata fields each type must carry. Producers and
// consumers match against this table instead of an open string bag.
var metadataKeys = map[Type][]string{
	TypeNewLike:      {"discount_id", "liked_by"},
	TypeNewComment:   {"discount_id", "comment_id", "commented_by"},
	TypeNewDiscount:  {"discount_id"},
	TypeStatusChange: {"discount_id", "status"},
	TypeExpiringSoon: {"discount_id", "expires_at"},
}

func (t Type) Valid() bool {
	_, ok := metadataKeys[t]
	return ok
}

// ValidateMetadata rejects unknown types and metadata missing a required key.
// Extra keys pass through verbatim.
func (t Type) ValidateMetadata(md map[string]any) error {
	keys, ok := metadataKeys[t]
	if !ok {
		return fmt.Errorf("unknown notification type %q", t)
	}
	for _, k := range keys {
		if _, present := md[k]; !present {
			return fmt.Errorf("notification type %q requires metadata key %q", t, k)
		}
	}
	return nil
}
