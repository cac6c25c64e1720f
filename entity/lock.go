package entity

import "fmt"

// lockCompletionMessage is the literal, human-readable diagnostic string
// carried in a lock-completion ResponseMessage's Result field. §9 Design
// Notes: "callers MUST NOT parse it."
const lockCompletionMessage = "lock set acquired"

// HandleLockRequest processes the lock request admitted as a batch's
// terminator (§4.3), returning the outbox entries to flush: either a
// forwarded lock request to the next entity in the chain, or a single
// completion response to the original requester.
//
// state.LockedBy must already reflect the outcome of admitting this
// request into the batch (applyLockOutcome applies it from BuildBatch's
// AcquiresLock) before
// HandleLockRequest is called — the invariant of §4.3: "lockedBy is set to
// its parentInstanceId before the batch is considered committed."
func HandleLockRequest(self EntityId, req RequestMessage) ([]OutboxEntry, error) {
	target, ok := req.currentLockTarget()
	if !ok {
		return nil, &SchedulerError{
			Type:     ExceptionProtocolViolation,
			Message:  ErrLockPositionMismatch.Error() + ": position out of range",
			EntityID: self,
			Cause:    ErrLockPositionMismatch,
		}
	}
	if target != self {
		return nil, &SchedulerError{
			Type:     ExceptionProtocolViolation,
			Message:  fmt.Sprintf("%s: addressed to %s, arrived at %s", ErrLockPositionMismatch, target, self),
			EntityID: self,
			Cause:    ErrLockPositionMismatch,
		}
	}

	advanced := req.advanced()
	if advanced.Position < len(advanced.LockSet) {
		// §4.3 step 4: forward to the next entity in the chain.
		next := advanced.LockSet[advanced.Position]
		return []OutboxEntry{{
			TargetInstanceID: NewSchedulerInstanceID(next),
			Request:          &advanced,
		}}, nil
	}

	// §4.3 step 5: the chain is fully acquired; reply once to the
	// originating requester. The result is diagnostic only.
	return []OutboxEntry{{
		TargetInstanceID: req.ParentInstanceID,
		Response: &ResponseMessage{
			CorrelationID: req.ID,
			Result:        lockCompletionMessage,
		},
	}}, nil
}

// applyLockOutcome mutates state to reflect admitting a lock request as a
// batch terminator, per BuildBatch's AcquiresLock flag.
func applyLockOutcome(state *SchedulerState, req RequestMessage, acquires bool) {
	if acquires {
		state.acquireLock(req.ParentInstanceID)
	}
	// The re-entrant case leaves LockedBy unchanged: it already equals
	// req.ParentInstanceID (BuildBatch only treats the request as
	// re-entrant when that holds).
}

// NewLockRequest builds the initial lock request message for acquiring a
// distributed critical section spanning lockSet, addressed to lockSet[0]
// (§4.3: "Distributed critical sections are acquired by sending a lock
// request with an ordered lockSet... and position = 0 to E0's scheduler").
func NewLockRequest(parentInstanceID string, lockSet []EntityId) (RequestMessage, string, error) {
	if len(lockSet) == 0 {
		return RequestMessage{}, "", fmt.Errorf("entity: lock set must not be empty")
	}
	msg := RequestMessage{
		ID:               NewRequestID(),
		ParentInstanceID: parentInstanceID,
		Operation:        "__lock",
		LockSet:          lockSet,
		Position:         0,
	}
	return msg, NewSchedulerInstanceID(lockSet[0]), nil
}

// NewUnlockMessage builds the reserved release message the lock holder
// sends to each entity in lockSet after committing its critical section
// (§4.3 Release, §9 Open Questions — this spec resolves the release path
// left unspecified upstream with a dedicated reserved operation name).
func NewUnlockMessage(parentInstanceID string) RequestMessage {
	return RequestMessage{
		ID:               NewRequestID(),
		ParentInstanceID: parentInstanceID,
		Operation:        UnlockOperation,
		IsSignal:         true,
	}
}
