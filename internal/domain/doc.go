// Package domain models live SOS incident reports from field devices.
//
// # Data Source
//
// Incident documents originate from mobile panic-button clients writing into
// an external document store. The store pushes a change feed: on every
// underlying change it re-delivers the complete result set of the incident
// collection, ordered by creation time descending. The feed is unordered with
// respect to individual edits and may re-deliver identical snapshots; only
// the latest fully-processed delivery is authoritative.
//
// # Field-Device Conventions
//
// Several client generations write different field shapes, so raw records are
// loosely typed ([RawRecord]) and pass through a single normalization
// chokepoint ([NormalizeRecord]) that never fails:
//
// Status:
//
//	Written lowercase by mobile clients ("active"), titlecase by the web
//	console ("Active"). Canonicalized by lowercasing and capitalizing the
//	first letter. An absent status defaults to Active: an emergency report
//	whose state is unknown must stay visible, not silently drop.
//
// Location:
//
//	Either a structured point object {"location": {"latitude", "longitude"}}
//	(newer clients) or separate top-level "lat"/"lng" scalars (legacy
//	clients). The structured form wins; zero-valued legacy scalars are
//	treated as absent, matching the permissive truthiness of the clients
//	that wrote them. Records without a usable location stay in the feed but
//	are excluded from map and geospatial operations.
//
// Reporter identity:
//
//	"userName" (display name) preferred, then the raw "userId" identifier,
//	then the fixed sentinel [UnknownReporter]. The raw identifier is also
//	kept as ReporterUID for sub-record lookups (evidence, trusted contacts)
//	and is never used for ownership decisions.
//
// Timestamps:
//
//	"createdAt" may be an RFC 3339 string, a Unix epoch number (seconds or
//	milliseconds), or a {"seconds","nanos"} object depending on the client
//	SDK. Anything unconvertible defaults to the normalization wall-clock
//	time from the package clock.
//
// Risk score:
//
//	Integer 0-10 computed by the mobile client. Absent or non-numeric values
//	default to [DefaultRiskScore]; out-of-range values are clamped, never
//	rejected.
//
// # Alerting Heuristic
//
// [ShouldAlert] decides whether a delivery represents a brand-new emergency
// worth an operator alert. It is a size-delta heuristic tied to the feed's
// newest-first ordering guarantee; see the function documentation for its
// known limitations.
package domain
