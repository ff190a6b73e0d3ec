package service

import (
    "fmt"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// StatusPolicy decides whether a reservation may move from one status to
// another.  Returning an error blocks the change; a *ConflictError keeps
// its message in the response.
type StatusPolicy interface {
    Allow(from, to uint8) error
}

// PermissivePolicy allows every transition.  It is the default: status
// updates act as a manual override.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(uint8, uint8) error { return nil }

// LifecyclePolicy enforces pending -> {approved, rejected, canceled} ->
// {completed, non-attendance}.  Approved reservations may still be
// canceled.  Writing the current status again is allowed.
type LifecyclePolicy struct{}

var lifecycle = map[uint8][]uint8{
    model.StatusPending:  {model.StatusApproved, model.StatusRejected, model.StatusCanceled},
    model.StatusApproved: {model.StatusCompleted, model.StatusNonAttendance, model.StatusCanceled},
}

func (LifecyclePolicy) Allow(from, to uint8) error {
    if from == to {
        return nil
    }
    for _, next := range lifecycle[from] {
        if next == to {
            return nil
        }
    }
    return &ConflictError{Message: fmt.Sprintf("Cannot change status from %d to %d", from, to)}
}
