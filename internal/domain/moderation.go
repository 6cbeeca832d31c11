package domain

import "time"

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionApprove, ActionReject, ActionDelete, ActionRestore:
		return a, true
	}
	return "", false
}

// ModerationState is the part of a record a moderator can change.
type ModerationState struct {
	Status    Status
	DeletedAt *time.Time
}

// Transition applies a moderator action. Deletion is a flag kept beside the
// status, so an approved record can also be deleted and later restored as approved.
func Transition(cur ModerationState, a Action, now time.Time) (ModerationState, error) {
	next := cur
	switch a {
	case ActionApprove:
		if cur.Status != StatusPending && cur.Status != StatusRejected {
			return cur, ErrInvalidTransition
		}
		next.Status = StatusApproved
	case ActionReject:
		if cur.Status != StatusPending && cur.Status != StatusApproved {
			return cur, ErrInvalidTransition
		}
		next.Status = StatusRejected
	case ActionDelete:
		if cur.DeletedAt != nil {
			return cur, ErrInvalidTransition
		}
		t := now.UTC()
		next.DeletedAt = &t
	case ActionRestore:
		if cur.DeletedAt == nil {
			return cur, ErrInvalidTransition
		}
		next.DeletedAt = nil
	default:
		return cur, ErrInvalidTransition
	}
	return next, nil
}

// ItemResult reports the outcome of one ID in a bulk action.
type ItemResult struct {
	ID      string     `json:"id"`
	OK      bool       `json:"ok"`
	Status  Status     `json:"status,omitempty"`
	Deleted *time.Time `json:"deletedAt,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type BulkResult struct {
	Action Action       `json:"action"`
	Items  []ItemResult `json:"results"`
}

func (b BulkResult) AllOK() bool {
	for _, it := range b.Items {
		if !it.OK {
			return false
		}
	}
	return true
}

func (b BulkResult) Failed() []string {
	var out []string
	for _, it := range b.Items {
		if !it.OK {
			out = append(out, it.ID)
		}
	}
	return out
}

func (b BulkResult) Succeeded() []string {
	var out []string
	for _, it := range b.Items {
		if it.OK {
			out = append(out, it.ID)
		}
	}
	return out
}
