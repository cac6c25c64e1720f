package entity

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// UnlockOperation is the distinguished operation name the runtime reserves
// for releasing a held lock (§4.3 Release, §9 Open Questions). A message
// bearing this operation name is never dispatched to user code: the batch
// builder admits it like any plain operation, and the dispatcher clears
// LockedBy for it instead of calling a handler.
const UnlockOperation = "__unlock"

// RequestMessage is an inbound operation, signal, or lock request delivered
// to an entity's scheduler (§3).
type RequestMessage struct {
	// ID globally identifies this request.
	ID string `json:"id"`

	// ParentInstanceID is the orchestration (or client-proxy instance) that
	// issued the request; the reply target for non-signals.
	ParentInstanceID string `json:"parentInstanceId"`

	// Operation is the logical operation name.
	Operation string `json:"operation"`

	// Input is the opaque, JSON-encoded argument payload.
	Input string `json:"input"`

	// IsSignal marks a fire-and-forget request: no response is ever sent.
	IsSignal bool `json:"isSignal"`

	// LockSet is the ordered, deduplicated entity chain being acquired. A
	// non-empty LockSet makes this message a lock request (IsLockRequest).
	LockSet []EntityId `json:"lockSet,omitempty"`

	// Position is the zero-based cursor into LockSet.
	Position int `json:"position,omitempty"`
}

// IsLockRequest reports whether m carries a non-empty LockSet, per §3: "A
// message is a lock request iff lockSet is non-empty; otherwise an
// operation or signal."
func (m RequestMessage) IsLockRequest() bool {
	return len(m.LockSet) > 0
}

// IsUnlock reports whether m carries the reserved release operation name
// (§4.3 Release, §9 Open Questions). It does not check the sender against
// the lock holder.
func (m RequestMessage) IsUnlock() bool {
	return m.Operation == UnlockOperation
}

// currentLockTarget returns the EntityId this lock request is addressed to
// at its current Position, and ok=false if Position is out of range.
func (m RequestMessage) currentLockTarget() (EntityId, bool) {
	if m.Position < 0 || m.Position >= len(m.LockSet) {
		return EntityId{}, false
	}
	return m.LockSet[m.Position], true
}

// advanced returns a copy of m with Position incremented, used when
// forwarding a lock request to the next entity in its LockSet (§4.3 step 3).
func (m RequestMessage) advanced() RequestMessage {
	m.Position++
	return m
}

// NewRequestID generates a globally unique request identifier (§3 "id").
// Grounded on google/uuid, the id generator the teacher's own packages
// lack (the teacher takes run ids as caller-supplied strings).
func NewRequestID() string {
	return uuid.NewString()
}

// ResponseMessage is the reply to a non-signal RequestMessage (§3). Exactly
// one of Result or (ExceptionType, ExceptionDetails) is meaningful.
type ResponseMessage struct {
	// CorrelationID echoes the RequestMessage.ID this response answers.
	CorrelationID string `json:"id"`

	// Result is the opaque, JSON-encoded return value. Empty when the
	// operation failed.
	Result string `json:"result"`

	// ExceptionType is the stable, machine-readable failure category (§7,
	// §9 "A systems-language rewrite should define a stable enumeration").
	// Empty when the operation succeeded.
	ExceptionType ExceptionType `json:"exceptionType,omitempty"`

	// ExceptionDetails is the original human-readable diagnostic string,
	// kept for debugging only — callers must not parse it (§9).
	ExceptionDetails string `json:"exceptionDetails,omitempty"`
}

// IsError reports whether this response carries a failure.
func (r ResponseMessage) IsError() bool {
	return r.ExceptionType != ""
}

// NewLockSet sorts and deduplicates entities into the canonical total order
// required by §4.3, returning an error if the input is empty.
func NewLockSet(entities ...EntityId) ([]EntityId, error) {
	if len(entities) == 0 {
		return nil, fmt.Errorf("entity: lock set must not be empty")
	}
	sorted := make([]EntityId, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	deduped := sorted[:1]
	for _, e := range sorted[1:] {
		if e != deduped[len(deduped)-1] {
			deduped = append(deduped, e)
		}
	}
	return deduped, nil
}
