package notify

import (
	"testing"

	"ThqRel/core/release"
	"ThqRel/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(action model.ModerationAction) release.ModerationEvent {
	return release.ModerationEvent{
		ReleaseID: "rel-1",
		CustomID:  "thqrel-0001",
		OwnerID:   7,
		Title:     "Night Shift",
		Action:    action,
		Reason:    "too quiet",
	}
}

func TestNotificationForModeratorDecisions(t *testing.T) {
	tests := []struct {
		action model.ModerationAction
		typ    string
	}{
		{model.ActionApprove, model.NotificationSuccess},
		{model.ActionReject, model.NotificationError},
		{model.ActionPublish, model.NotificationSuccess},
		{model.ActionPaymentVerify, model.NotificationSuccess},
		{model.ActionPaymentReject, model.NotificationError},
	}

	for _, tt := range tests {
		n := notificationFor(event(tt.action))
		require.NotNil(t, n, "action %s must produce a notification", tt.action)
		assert.Equal(t, int64(7), n.UserID)
		assert.Equal(t, tt.typ, n.Type)
		assert.Equal(t, "/cabinet/releases/rel-1", n.Link)
		assert.False(t, n.IsRead)
		assert.NotEmpty(t, n.ID)
	}
}

func TestNoNotificationForOwnerActions(t *testing.T) {
	for _, action := range []model.ModerationAction{
		model.ActionSubmit, model.ActionDelete, model.ActionPaymentSubmit,
		model.ActionAssignUPC, model.ActionAssignISRC,
	} {
		assert.Nil(t, notificationFor(event(action)), "action %s must stay silent", action)
	}
}

func TestRejectionNotificationCarriesReason(t *testing.T) {
	n := notificationFor(event(model.ActionReject))
	require.NotNil(t, n)
	assert.Contains(t, n.Message, "too quiet")
	assert.Contains(t, n.Message, "Night Shift")
}
