package rules

import "sort"

// EvaluateDocuments computes the full evaluated checklist for one
// application: every visible slot with its lock state, derived status, and
// active-file metadata, grouped per the configuration.
//
// The function is pure and deterministic: same (facts, config) in, same
// groups out. No I/O, no clock reads beyond what is already embedded in the
// facts. Callers that need fresh data re-fetch rows and rebuild the fact
// bag before calling.
func EvaluateDocuments(facts FactBag, cfg ApplicationConfig) []DocumentGroup {
	filesBySlot := slotFiles(facts)

	groups := make([]DocumentGroup, 0, len(cfg.Groups))
	for _, gc := range cfg.Groups {
		slots := []DocumentSlot{}

		for _, tmpl := range ExpandGroup(gc, facts) {
			// Visibility is a hard filter: a hidden slot does not appear
			// in the output at all, not even as "hidden".
			if !EvalCondition(tmpl.VisibilityRule, facts) {
				continue
			}
			slots = append(slots, evaluateSlot(gc.ID, tmpl, facts, filesBySlot[tmpl.ID]))
		}

		// A group entirely hidden by visibility rules is not shown at all.
		if len(slots) == 0 {
			continue
		}
		groups = append(groups, DocumentGroup{ID: gc.ID, Title: gc.Title, Slots: slots})
	}

	return groups
}

// evaluateSlot builds the view-model for one visible slot.
func evaluateSlot(groupID string, tmpl SlotTemplate, facts FactBag, files []DocumentFile) DocumentSlot {
	slot := DocumentSlot{
		ID:           tmpl.ID,
		GroupID:      groupID,
		Label:        tmpl.Label,
		Role:         tmpl.Role,
		DocumentType: tmpl.DocumentType,
		Required:     tmpl.Required,
		Visible:      true,
		Documents:    sortedNewestFirst(files),
	}

	if !EvalCondition(tmpl.UnlockRule, facts) {
		// Locked: upload state is ignored for status purposes, but the
		// files themselves are kept (nothing is deleted by evaluation).
		slot.Locked = true
		slot.LockMessage = tmpl.LockMessage
		slot.Status = StatusLocked
		return slot
	}

	slot.Status = DeriveStatus(false, slot.Documents)

	if len(slot.Documents) > 0 {
		active := slot.Documents[0]
		slot.FileID = &active.ID
		slot.FileName = &active.FileName
		slot.FileSize = &active.FileSize
		slot.MimeType = &active.MimeType
		slot.UploadedAt = &active.UploadedAt
		slot.UploadedBy = &active.UploadedBy
		slot.RejectionReason = active.RejectionReason
		if active.PreviewURL != "" {
			slot.PreviewURL = &active.PreviewURL
		}
	}

	return slot
}

// slotFiles extracts the per-slot upload state embedded in the fact bag.
func slotFiles(facts FactBag) map[string][]DocumentFile {
	v, ok := facts.Resolve(FactDocuments)
	if !ok {
		return nil
	}
	files, _ := v.(map[string][]DocumentFile)
	return files
}

// sortedNewestFirst copies the file list ordered newest upload first (ties
// broken by id) so the "active" file and the output ordering are stable
// regardless of how the rows were fetched.
func sortedNewestFirst(files []DocumentFile) []DocumentFile {
	out := make([]DocumentFile, len(files))
	copy(out, files)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// FindSlot locates a slot by id within an evaluated result. Used by the
// upload-authorization boundary: an upload is accepted only if the target
// slot exists in the evaluated set and is not locked.
func FindSlot(groups []DocumentGroup, slotID string) (DocumentSlot, bool) {
	for _, g := range groups {
		for _, s := range g.Slots {
			if s.ID == slotID {
				return s, true
			}
		}
	}
	return DocumentSlot{}, false
}
