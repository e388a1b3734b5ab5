package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatflow/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestReportTargetResolution(t *testing.T) {
	cases := []struct {
		name     string
		report   models.ModerationReport
		wantType models.ContentType
		wantID   string
		wantOK   bool
	}{
		{"comment", models.ModerationReport{CommentID: strPtr("c1")}, models.ContentComment, "c1", true},
		{"rating", models.ModerationReport{RatingID: strPtr("r1")}, models.ContentRating, "r1", true},
		{"playlist", models.ModerationReport{PlaylistID: strPtr("p1")}, models.ContentPlaylist, "p1", true},
		{"no reference", models.ModerationReport{}, "", "", false},
		{"empty reference", models.ModerationReport{CommentID: strPtr("")}, "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ct, id, ok := tc.report.Target()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantType, ct)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestReportBeforeCreateDefaults(t *testing.T) {
	report := models.ModerationReport{CommentID: strPtr("c1"), ReporterID: "u1", AuthorID: "u2"}

	require.NoError(t, report.BeforeCreate(nil))

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, models.ReportChecking, report.State)
}

func TestReportBeforeCreateKeepsExplicitValues(t *testing.T) {
	report := models.ModerationReport{ID: "fixed", State: models.ReportRejected}

	require.NoError(t, report.BeforeCreate(nil))

	assert.Equal(t, "fixed", report.ID)
	assert.Equal(t, models.ReportRejected, report.State)
}

func TestVerdictPredicates(t *testing.T) {
	assert.True(t, models.Verdict{Label: models.VerdictHate}.Abusive())
	assert.False(t, models.Verdict{Label: models.VerdictSafe}.Abusive())
	assert.False(t, models.PendingVerdict(models.ReasonTimeout).Abusive())
	assert.True(t, models.PendingVerdict(models.ReasonTimeout).Pending())
	assert.Equal(t, models.ReasonTimeout, models.PendingVerdict(models.ReasonTimeout).Reason)
}

func TestValidVerdictLabel(t *testing.T) {
	for _, label := range []string{"safe", "hate", "harassment", "sexual", "violence"} {
		assert.True(t, models.ValidVerdictLabel(label), label)
	}
	for _, label := range []string{"pending", "spam", "SAFE", ""} {
		assert.False(t, models.ValidVerdictLabel(label), label)
	}
}

func TestPlaylistModerationText(t *testing.T) {
	p := models.Playlist{Title: "Late Night Loops", Description: "slow and heavy"}
	assert.Equal(t, "Late Night Loops\nslow and heavy", p.ModerationText())

	empty := models.Playlist{Title: "Untitled"}
	assert.Equal(t, "Untitled", empty.ModerationText())
}
