package rules

// statusPrecedence orders file statuses from strongest to weakest for slot
// status derivation. If ANY file for a slot has been verified, the slot is
// verified even if a later re-upload is sitting at uploaded: a new upload
// does not erase a prior human verification until explicitly re-processed.
// This is an encoded product decision, not a law of nature.
var statusPrecedence = []string{
	StatusVerified,
	StatusRejected,
	StatusInReview,
	StatusUploaded,
}

// DeriveStatus maps the full set of uploaded files for a slot to one
// aggregate slot status. Locking overrides everything else: a locked slot
// is always missing for upload-eligibility purposes, regardless of any
// stale file state.
func DeriveStatus(locked bool, files []DocumentFile) string {
	if locked || len(files) == 0 {
		return StatusMissing
	}

	present := map[string]bool{}
	for _, f := range files {
		present[f.Status] = true
	}

	for _, status := range statusPrecedence {
		if present[status] {
			return status
		}
	}

	// Files with only unrecognized statuses degrade to uploaded rather
	// than crash or hide the slot.
	return StatusUploaded
}
