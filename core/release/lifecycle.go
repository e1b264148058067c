package release

import "ThqRel/model"

// Event is a lifecycle transition request. All guards for an event live in
// the service method that raises it; this table is the single source of
// truth for which transitions exist at all.
type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventPublish Event = "publish"
	EventDelete  Event = "delete"
)

// transitions maps an event to its legal source states and the resulting
// state. Delete is absent: it removes the record instead of moving it, and
// its actor rules are handled in Service.DeleteRelease.
var transitions = map[Event]map[model.Status]model.Status{
	EventSubmit: {
		model.StatusDraft:    model.StatusPending,
		model.StatusRejected: model.StatusPending,
	},
	EventApprove: {
		model.StatusPending: model.StatusDistributed,
	},
	EventReject: {
		model.StatusPending: model.StatusRejected,
	},
	EventPublish: {
		model.StatusDistributed: model.StatusPublished,
	},
}

// nextStatus resolves the target state for an event from the given state.
func nextStatus(ev Event, from model.Status) (model.Status, bool) {
	to, ok := transitions[ev][from]
	return to, ok
}

// deletableBy reports whether the actor may hard-delete a release in the
// given state. Owners may delete their drafts; moderators may delete from
// any state.
func deletableBy(r *model.Release, actor Actor) bool {
	if actor.Role == model.RoleModerator {
		return true
	}
	return r.OwnerID == actor.ID && r.Status == model.StatusDraft
}
