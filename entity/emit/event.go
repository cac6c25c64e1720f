package emit

// Event represents an observability event emitted during entity scheduler
// execution: batch starts and ends, operation failures, lock acquisition,
// and protocol violations.
type Event struct {
	// InstanceID is the scheduler instance id of the entity that emitted
	// this event.
	InstanceID string

	// ClassName is the entity class, duplicated out of InstanceID for
	// cheap filtering without parsing.
	ClassName string

	// Msg is a short, stable event name: "batch_start", "batch_end",
	// "operation_failure", "lock_acquired", "protocol_violation".
	Msg string

	// Meta carries event-specific structured data. Common keys:
	//   - "operation": operation name for an operation_failure event
	//   - "batch_size": number of items in the batch
	//   - "error": error details
	//   - "holder": lock holder instance id
	Meta map[string]interface{}
}
