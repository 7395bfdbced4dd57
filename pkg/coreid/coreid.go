package coreid

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ActorId uniquely identifies one actor for its lifetime within a runtime.
// Equality is by identity (the Index field), never by Name, and an id is
// never reused after the actor it names has halted.
type ActorId struct {
	Name  string
	Index uint64
}

// String renders the id the way trace records and error messages expect:
// "Name(Index)".
func (id ActorId) String() string {
	if id.Name == "" {
		return fmt.Sprintf("actor(%d)", id.Index)
	}
	return fmt.Sprintf("%s(%d)", id.Name, id.Index)
}

// IsZero reports whether id is the zero value, i.e. was never assigned by
// a runtime.
func (id ActorId) IsZero() bool {
	return id.Index == 0 && id.Name == ""
}

// Equal compares two ids by identity, per the data model's equality rule.
func (id ActorId) Equal(other ActorId) bool {
	return id.Index == other.Index
}

// Generator hands out monotonically increasing ActorId indices for a
// single runtime instance. The zero Generator is not usable; use
// NewGenerator. An index of 0 is never issued, so the zero ActorId always
// means "unassigned".
type Generator struct {
	next atomic.Uint64
}

// NewGenerator creates a fresh id generator, used once per runtime.
func NewGenerator() *Generator {
	g := &Generator{}
	g.next.Store(1)
	return g
}

// Next allocates the next ActorId for a named actor type. When name is
// empty, a type-name-derived placeholder is still required by the
// caller; Next does not invent one.
func (g *Generator) Next(name string) ActorId {
	idx := g.next.Add(1) - 1
	return ActorId{Name: name, Index: idx}
}

// EventGroup is an opaque causal tag attached to a send. A new group
// correlates everything downstream of one external trigger ("one
// operation") even as it fans out across many actors.
type EventGroup struct {
	id string
}

// NilEventGroup is the absence of a causal tag.
var NilEventGroup = EventGroup{}

// NewEventGroup creates a fresh, globally-unique event group.
func NewEventGroup() EventGroup {
	return EventGroup{id: uuid.NewString()}
}

// String renders the group id, or "<none>" for the nil group.
func (g EventGroup) String() string {
	if g.id == "" {
		return "<none>"
	}
	return g.id
}

// IsNil reports whether g carries no causal tag.
func (g EventGroup) IsNil() bool {
	return g.id == ""
}

// Equal compares two event groups by their opaque id.
func (g EventGroup) Equal(other EventGroup) bool {
	return g.id == other.id
}
