package domain

// ShouldAlert decides whether the current delivery represents a brand-new
// critical incident. It is a size-delta heuristic that relies on the feed's
// newest-first ordering: when the set grew and the newest incident is Active,
// that incident is the alert target.
//
// No alert fires when previous is nil or empty: the first observation after a
// (re)connect replays history and must not storm the operator with alerts.
//
// Known limitations, inherent to the size-delta signal: two incidents created
// in the same instant alert at most once, and a status edit that flips an
// existing incident to Active without growing the set never alerts. Do not
// strengthen either without product input.
func ShouldAlert(previous *SnapshotStats, current Snapshot) (Incident, bool) {
	if previous == nil || previous.Size == 0 {
		return Incident{}, false
	}
	if len(current.Incidents) <= previous.Size {
		return Incident{}, false
	}

	newest := current.Incidents[0]
	if newest.Status != StatusActive {
		return Incident{}, false
	}
	return newest, true
}
