package domain

import (
	"encoding/json"
	"iter"
)

// ExtractLinks flattens each record's linked-event list into one LinkRow per
// entry, carrying the parent's identifier and raw start time. Records whose
// link field is absent, null or not an array yield nothing. Rows from a
// single record come out in list order.
func ExtractLinks(events iter.Seq[RawEvent], fields FieldSet) iter.Seq[LinkRow] {
	return func(yield func(LinkRow) bool) {
		for ev := range events {
			refs, ok := ev.list(fields.Links)
			if !ok {
				continue
			}
			id, _ := ev.String(fields.ID)
			ts, _ := ev.String(fields.Time)
			for _, ref := range refs {
				if !yield(LinkRow{SourceID: id, SourceTime: ts, ReferencedID: referenceID(ref)}) {
					return
				}
			}
		}
	}
}

// referenceID pulls activityID out of a linked-event entry. Entries that are
// not objects, or whose activityID is missing or not a string, give nil.
func referenceID(ref json.RawMessage) *string {
	var entry struct {
		ActivityID *string `json:"activityID"`
	}
	if err := json.Unmarshal(ref, &entry); err != nil {
		return nil
	}
	return entry.ActivityID
}
