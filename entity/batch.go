package entity

// Batch is the unit of work executed per scheduler iteration (§4.2): zero
// or more eligible operations/signals, in FIFO order, optionally followed
// by one terminating lock request.
type Batch struct {
	// Items are the operations/signals to dispatch, in the order they were
	// admitted.
	Items []RequestMessage

	// LockRequest is the terminating lock request, if one was admitted.
	LockRequest *RequestMessage

	// AcquiresLock is true when LockRequest newly sets LockedBy (as
	// opposed to the re-entrant no-op case, where LockedBy was already
	// equal to the requester).
	AcquiresLock bool
}

// Empty reports whether this batch has nothing to execute (§4.1 step 4).
func (b Batch) Empty() bool {
	return len(b.Items) == 0 && b.LockRequest == nil
}

// BuildBatch assembles the next batch from the head of state.Queue following
// the eligibility rules of §4.2, and returns the residual queue (messages
// not admitted into this batch, in their original relative order).
//
// maxSize advisorially bounds the number of plain operations/signals
// admitted; it is never allowed to split a terminating lock request from
// the operations that precede it (§4.2's "MUST NOT split the final lock
// request from the operations preceding it").
func BuildBatch(state SchedulerState, maxSize int) (Batch, []RequestMessage) {
	var batch Batch
	residual := make([]RequestMessage, 0, len(state.Queue))

	holder, locked := state.LockHolder()

	for i := 0; i < len(state.Queue); i++ {
		msg := state.Queue[i]

		if msg.IsLockRequest() {
			switch {
			case !locked:
				// Unlocked: this lock request becomes the terminator.
				m := msg
				batch.LockRequest = &m
				batch.AcquiresLock = true
				residual = append(residual, state.Queue[i+1:]...)
				return batch, residual

			case msg.ParentInstanceID == holder:
				// Re-entrant: already held by the same owner, a no-op ack.
				m := msg
				batch.LockRequest = &m
				batch.AcquiresLock = false
				residual = append(residual, state.Queue[i+1:]...)
				return batch, residual

			default:
				// Blocked by someone else's lock: stop here. Everything
				// from this point on (including this message) stays
				// queued; we must not skip over it to reach later
				// eligible messages from the lock holder.
				residual = append(residual, state.Queue[i:]...)
				return batch, residual
			}
		}

		// Plain operation or signal.
		eligible := !locked || msg.ParentInstanceID == holder
		if !eligible {
			// Ineligible while a foreign lock is held; leave it queued but
			// keep scanning — unlike a blocking lock request, a plain
			// message does not prevent later messages from being serviced.
			residual = append(residual, msg)
			continue
		}

		if maxSize > 0 && len(batch.Items) >= maxSize {
			// Advisory limit reached; leave this and everything after it
			// queued for the next iteration.
			residual = append(residual, state.Queue[i:]...)
			return batch, residual
		}

		batch.Items = append(batch.Items, msg)
	}

	return batch, residual
}
