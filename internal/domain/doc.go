// Package domain models NASA DONKI space weather catalogs and the linking of
// coronal mass ejections (CME) to the geomagnetic storms (GST) they cause.
//
// # Data Source
//
// Records come from the DONKI web service (https://api.nasa.gov/DONKI/), one
// endpoint per catalog. Each endpoint returns a JSON array of loosely shaped
// objects for a closed date range. Fields are frequently missing or null, and
// the same field can hold different JSON shapes across records.
//
// # DONKI Conventions
//
// Identifiers:
//
//	CME records carry "activityID", e.g. "2024-01-01T00:12:00-CME-001".
//	GST records carry "gstID",      e.g. "2024-01-02T06:00:00-GST-001".
//	The event type is embedded in the identifier, so a substring test on
//	"CME" or "GST" tells which catalog an identifier belongs to.
//
// Time format:
//
//	"startTime" is UTC with minute precision and a trailing Z,
//	e.g. "2024-01-01T00:12Z". Full RFC 3339 values and naive
//	"YYYY-MM-DDTHH:MM[:SS]" values are also accepted and read as UTC.
//
// Linked events:
//
//	"linkedEvents" is normally an array of {"activityID": "..."} objects and
//	may point at any DONKI event type (FLR, SEP, IPS, MPC, RBE, CME, GST).
//	It is null when DONKI has not linked anything. GST records sometimes
//	carry a single object instead of an array; that object is read as a
//	one-element list.
//
// # Linking
//
// A CME and a GST are paired when the CME lists the GST's gstID among its
// linked events. The GST side must list a CME link too, otherwise it never
// enters the join. The delay TimeDiff is the signed number of hours from the
// CME start to the GST start. Negative delays exist in the catalog and are
// kept as reported.
package domain
