package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fileWith(status string) DocumentFile {
	return DocumentFile{
		ID:         "f-" + status,
		SlotID:     "passport",
		FileName:   status + ".pdf",
		UploadedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:     status,
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		locked bool
		files  []DocumentFile
		want   string
	}{
		{"no files", false, nil, StatusMissing},
		{"single upload", false, []DocumentFile{fileWith(StatusUploaded)}, StatusUploaded},
		{"in review", false, []DocumentFile{fileWith(StatusInReview)}, StatusInReview},
		{"rejected beats in_review", false,
			[]DocumentFile{fileWith(StatusInReview), fileWith(StatusRejected)}, StatusRejected},

		// Precedence over the FULL file set, order irrelevant:
		// verified > rejected > in_review > uploaded. This ordering is an
		// encoded product policy (a re-upload does not erase a prior human
		// verification), not a law of nature.
		{"verified wins regardless of order", false,
			[]DocumentFile{fileWith(StatusUploaded), fileWith(StatusVerified), fileWith(StatusRejected)},
			StatusVerified},

		// Locking overrides everything, including stale verified files.
		{"locked slot is missing even with a verified file", true,
			[]DocumentFile{fileWith(StatusVerified)}, StatusMissing},
		{"locked with no files", true, nil, StatusMissing},

		{"unrecognized file status degrades to uploaded", false,
			[]DocumentFile{fileWith("quarantined")}, StatusUploaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.locked, tt.files))
		})
	}
}
