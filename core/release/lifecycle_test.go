package release

import (
	"testing"

	"ThqRel/model"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		event Event
		from  model.Status
		to    model.Status
		ok    bool
	}{
		{EventSubmit, model.StatusDraft, model.StatusPending, true},
		{EventSubmit, model.StatusRejected, model.StatusPending, true},
		{EventSubmit, model.StatusDistributed, "", false},
		{EventSubmit, model.StatusPublished, "", false},
		{EventApprove, model.StatusPending, model.StatusDistributed, true},
		{EventApprove, model.StatusDraft, "", false},
		{EventApprove, model.StatusDistributed, "", false},
		{EventReject, model.StatusPending, model.StatusRejected, true},
		{EventReject, model.StatusDistributed, "", false},
		{EventPublish, model.StatusDistributed, model.StatusPublished, true},
		{EventPublish, model.StatusPending, "", false},
		{EventPublish, model.StatusPublished, "", false},
	}

	for _, tt := range tests {
		to, ok := nextStatus(tt.event, tt.from)
		assert.Equal(t, tt.ok, ok, "%s from %s", tt.event, tt.from)
		if tt.ok {
			assert.Equal(t, tt.to, to, "%s from %s", tt.event, tt.from)
		}
	}
}

func TestDeletableBy(t *testing.T) {
	owner := Actor{ID: 7, Role: model.RoleArtist}
	other := Actor{ID: 8, Role: model.RoleArtist}
	moderator := Actor{ID: 9, Role: model.RoleModerator}

	rel := &model.Release{OwnerID: 7, Status: model.StatusDraft}
	assert.True(t, deletableBy(rel, owner))
	assert.False(t, deletableBy(rel, other))
	assert.True(t, deletableBy(rel, moderator))

	// Once a release leaves draft the owner loses the delete right.
	for _, status := range []model.Status{
		model.StatusPending, model.StatusDistributed, model.StatusPublished, model.StatusRejected,
	} {
		rel.Status = status
		assert.False(t, deletableBy(rel, owner), "owner must not delete %s", status)
		assert.True(t, deletableBy(rel, moderator), "moderator may delete %s", status)
	}
}
