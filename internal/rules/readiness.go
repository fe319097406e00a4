package rules

import "math"

// Readiness summarizes how close a case is to submission-ready.
type Readiness struct {
	RequiredSlots  int     `json:"requiredSlots"`
	VerifiedSlots  int     `json:"verifiedSlots"`
	RejectedSlots  int     `json:"rejectedSlots"`
	LockedRequired int     `json:"lockedRequired"`
	Percent        float64 `json:"percent"`
}

// ComputeReadiness derives case readiness from an evaluated checklist.
//
// Locked required slots are EXCLUDED from the denominator until unlocked:
// the applicant cannot act on them, so counting them would show cases as
// permanently stalled. They are surfaced separately via LockedRequired.
func ComputeReadiness(groups []DocumentGroup) Readiness {
	var r Readiness

	for _, g := range groups {
		for _, s := range g.Slots {
			if !s.Required {
				continue
			}
			if s.Locked {
				r.LockedRequired++
				continue
			}
			r.RequiredSlots++
			switch s.Status {
			case StatusVerified:
				r.VerifiedSlots++
			case StatusRejected:
				r.RejectedSlots++
			}
		}
	}

	if r.RequiredSlots > 0 {
		r.Percent = math.Round(float64(r.VerifiedSlots)/float64(r.RequiredSlots)*1000) / 10
	}
	return r
}
