package entity

// SchedulerState is the per-entity state persisted between scheduler loop
// iterations (§3). It is the sole iteration-to-iteration carrier: nothing
// about an entity survives an activation except what is captured here.
type SchedulerState struct {
	// EntityExists reports whether the entity has been constructed and not
	// since destructed.
	EntityExists bool `json:"entityExists"`

	// EntityState is the opaque, JSON-encoded user state blob, or nil when
	// the entity does not exist (invariant 1).
	EntityState *string `json:"entityState"`

	// Queue is the FIFO backlog of requests not yet built into a batch.
	Queue []RequestMessage `json:"queue"`

	// LockedBy is the ParentInstanceID currently holding the distributed
	// critical section on this entity, or nil if unlocked.
	LockedBy *string `json:"lockedBy"`
}

// NewSchedulerState returns a fresh, latent SchedulerState — the value a
// cold activation initializes to (§4.1 step 1).
func NewSchedulerState() SchedulerState {
	return SchedulerState{}
}

// IsLocked reports whether a critical section is currently held.
func (s SchedulerState) IsLocked() bool {
	return s.LockedBy != nil
}

// LockHolder returns the current lock holder and whether one is held.
func (s SchedulerState) LockHolder() (string, bool) {
	if s.LockedBy == nil {
		return "", false
	}
	return *s.LockedBy, true
}

// acquireLock sets LockedBy, enforcing invariant 2: lockedBy is null unless
// a prior lock request succeeded and no release has been processed.
func (s *SchedulerState) acquireLock(holder string) {
	h := holder
	s.LockedBy = &h
}

// releaseLock clears LockedBy (§4.3 Release).
func (s *SchedulerState) releaseLock() {
	s.LockedBy = nil
}

// Enqueue appends an inbound message to the tail of the queue, preserving
// arrival order (§4.1 step 2, invariant 4).
func (s *SchedulerState) Enqueue(msg RequestMessage) {
	s.Queue = append(s.Queue, msg)
}

// setState assigns the opaque entity state blob and marks the entity as
// existing. Used by the dispatcher after a state-mutating operation.
func (s *SchedulerState) setState(blob string) {
	s.EntityExists = true
	s.EntityState = &blob
}

// clearState implements destructOnExit: clears EntityState and flips
// EntityExists to false (§4.4, §3 lifecycle).
func (s *SchedulerState) clearState() {
	s.EntityExists = false
	s.EntityState = nil
}

// CheckInvariants validates invariant 1 (EntityState == nil iff
// !EntityExists) and invariant 5 (LockSet ordering/dedup) for every queued
// lock request. It is used by tests; the scheduler loop does not call it.
func (s SchedulerState) CheckInvariants() error {
	if s.EntityExists && s.EntityState == nil {
		return &SchedulerError{Type: ExceptionProtocolViolation, Message: "entityExists true but entityState is nil"}
	}
	if !s.EntityExists && s.EntityState != nil {
		return &SchedulerError{Type: ExceptionProtocolViolation, Message: "entityExists false but entityState is non-nil"}
	}
	for _, msg := range s.Queue {
		if !msg.IsLockRequest() {
			continue
		}
		if err := validateLockSet(msg.LockSet); err != nil {
			return err
		}
	}
	return nil
}

// validateLockSet enforces invariant 5: strictly ordered, no duplicates.
func validateLockSet(lockSet []EntityId) error {
	for i := 1; i < len(lockSet); i++ {
		if !lockSet[i-1].Less(lockSet[i]) {
			return &SchedulerError{Type: ExceptionProtocolViolation, Message: ErrDuplicateInLockSet.Error() + " or is not strictly ordered", Cause: ErrDuplicateInLockSet}
		}
	}
	return nil
}
