// Package entity implements the durable, single-threaded-per-entity
// execution engine: a replayable scheduler that serializes operations
// against an addressable, long-lived entity identified by (className, key).
package entity

import (
	"fmt"
	"strings"
)

// EntityId identifies an addressable entity by its class and key.
//
// Equality is componentwise. EntityId values are used both as routing
// addresses (via NewSchedulerInstanceID) and as elements of a LockSet,
// where they participate in the total order defined by Less.
type EntityId struct {
	ClassName string `json:"className"`
	Key       string `json:"key"`
}

// String renders the entity id in "className/key" form, used for logging
// and as the human-readable component of a scheduler instance id.
func (id EntityId) String() string {
	return id.ClassName + "/" + id.Key
}

// Less reports whether id sorts before other under the total order required
// by §4.3: lexicographic on ClassName, then Key. LockSet construction relies
// on this order to guarantee deadlock freedom (P4).
func (id EntityId) Less(other EntityId) bool {
	if id.ClassName != other.ClassName {
		return id.ClassName < other.ClassName
	}
	return id.Key < other.Key
}

// instanceIDPrefix namespaces scheduler instance ids so they cannot collide
// with instance ids used by unrelated orchestrations sharing the same
// durable-workflow runtime.
const instanceIDPrefix = "@entity@"

// separator divides className from key inside an encoded instance id. It is
// percent-escaped out of both components so the encoding round-trips even
// when a className or key itself contains the separator character.
const separator = "/"

// NewSchedulerInstanceID computes the routing address the underlying
// workflow runtime uses to address this entity's scheduler orchestration.
// The encoding is reversible; see ParseSchedulerInstanceID (R2).
func NewSchedulerInstanceID(id EntityId) string {
	return instanceIDPrefix + escapeComponent(id.ClassName) + separator + escapeComponent(id.Key)
}

// ParseSchedulerInstanceID decodes a scheduler instance id produced by
// NewSchedulerInstanceID back into an EntityId. It returns an error if the
// instance id was not produced by this package's encoding.
func ParseSchedulerInstanceID(instanceID string) (EntityId, error) {
	rest, ok := strings.CutPrefix(instanceID, instanceIDPrefix)
	if !ok {
		return EntityId{}, fmt.Errorf("entity: %q is not a scheduler instance id", instanceID)
	}
	class, key, ok := cutUnescaped(rest, separator)
	if !ok {
		return EntityId{}, fmt.Errorf("entity: malformed scheduler instance id %q", instanceID)
	}
	return EntityId{ClassName: unescapeComponent(class), Key: unescapeComponent(key)}, nil
}

// escapeComponent percent-escapes '%' and the separator so concatenation
// with separator remains unambiguous and reversible.
func escapeComponent(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, separator, "%2F")
	return s
}

func unescapeComponent(s string) string {
	s = strings.ReplaceAll(s, "%2F", separator)
	s = strings.ReplaceAll(s, "%25", "%")
	return s
}

// cutUnescaped splits s on the first occurrence of sep that is not part of
// an escape sequence produced by escapeComponent (sep only ever appears
// unescaped once, as the component separator).
func cutUnescaped(s, sep string) (before, after string, found bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(sep):], true
}
