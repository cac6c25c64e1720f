package entity

// CurrentOperation describes the operation being dispatched at the moment
// a status snapshot was taken, when the runtime chooses to report one
// (§4.6). This package's own Scheduler never straddles a status read
// mid-dispatch (RunIteration executes a batch to completion synchronously)
// but the field exists so out-of-process or streaming runtimes can report
// richer mid-flight status.
type CurrentOperation struct {
	Operation         string `json:"operation"`
	ID                string `json:"id"`
	ParentInstanceID  string `json:"parentInstanceId"`
	StartTimeUnixNano int64  `json:"startTime"`
}

// Status is the bounded, O(1)-size diagnostic snapshot of §4.6. It never
// embeds entityState or queued payloads, regardless of workload size.
type Status struct {
	EntityExists     bool              `json:"entityExists"`
	QueueSize        int               `json:"queueSize"`
	LockedBy         *string           `json:"lockedBy"`
	CurrentOperation *CurrentOperation `json:"currentOperation"`
}

// NewStatus derives a Status snapshot from SchedulerState. Deliberately
// copies only sizes and identifiers out of state, never entityState or the
// queued messages themselves (§4.6: "the snapshot must be O(1) in size
// regardless of workload").
func NewStatus(state SchedulerState) Status {
	var lockedBy *string
	if state.LockedBy != nil {
		v := *state.LockedBy
		lockedBy = &v
	}
	return Status{
		EntityExists: state.EntityExists,
		QueueSize:    len(state.Queue),
		LockedBy:     lockedBy,
	}
}
