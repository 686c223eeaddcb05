package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"time"
)

// Kind identifies a DONKI catalog.
type Kind string

const (
	KindCME Kind = "CME"
	KindGST Kind = "GST"
)

// Valid reports whether k names one of the supported catalogs.
func (k Kind) Valid() bool {
	return k == KindCME || k == KindGST
}

// Opposite returns the catalog that records of kind k link to.
func (k Kind) Opposite() Kind {
	if k == KindCME {
		return KindGST
	}
	return KindCME
}

// Fields returns the names of the identifier, time and linked-event fields
// used by records of kind k.
func (k Kind) Fields() FieldSet {
	if k == KindGST {
		return GSTFields
	}
	return CMEFields
}

// FieldSet names the fields the link extractor reads from a RawEvent.
type FieldSet struct {
	ID    string
	Time  string
	Links string
}

var (
	CMEFields = FieldSet{ID: "activityID", Time: "startTime", Links: "linkedEvents"}
	GSTFields = FieldSet{ID: "gstID", Time: "startTime", Links: "linkedEvents"}
)

// RawEvent is one catalog entry exactly as the data source returned it.
// Values stay undecoded until the normalizer asks for a specific field.
type RawEvent map[string]json.RawMessage

// present reports whether name exists and is not JSON null.
func (r RawEvent) present(name string) bool {
	v, ok := r[name]
	if !ok {
		return false
	}
	return !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// String returns the field as a string. ok is false when the field is
// absent, null or holds another JSON type.
func (r RawEvent) String(name string) (string, bool) {
	if !r.present(name) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r[name], &s); err != nil {
		return "", false
	}
	return s, true
}

// list decodes the field as a JSON array. ok is false for any other shape.
func (r RawEvent) list(name string) ([]json.RawMessage, bool) {
	v := bytes.TrimSpace(r[name])
	if len(v) == 0 || v[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, false
	}
	return items, true
}

// withObjectAsList returns a copy of r in which a single JSON object stored
// under name is wrapped in a one-element array. Other shapes are untouched.
func (r RawEvent) withObjectAsList(name string) RawEvent {
	v := bytes.TrimSpace(r[name])
	if len(v) == 0 || v[0] != '{' {
		return r
	}
	out := maps.Clone(r)
	wrapped := make([]byte, 0, len(v)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, v...)
	wrapped = append(wrapped, ']')
	out[name] = wrapped
	return out
}

// LinkRow is one linked event flattened out of its parent record.
// ReferencedID is nil when the linked-event entry has no activityID.
type LinkRow struct {
	SourceID     string
	SourceTime   string
	ReferencedID *string
}

// NormalizedLink is a cross-catalog reference with a parsed start time.
// ReferencedID always contains the marker of Kind.Opposite().
type NormalizedLink struct {
	Kind         Kind
	SourceID     string
	SourceTime   time.Time
	ReferencedID string
}

// CorrelatedPair joins one CME link to one GST link. TimeDiff is the signed
// number of hours from the CME start to the GST start.
type CorrelatedPair struct {
	CMEID         string    `json:"cmeID"`
	CMETime       time.Time `json:"startTime_CME"`
	GSTActivityID string    `json:"GST_ActivityID"`
	GSTID         string    `json:"gstID"`
	GSTTime       time.Time `json:"startTime_GST"`
	CMEActivityID string    `json:"CME_ActivityID"`
	TimeDiff      float64   `json:"timeDiff"`
}
