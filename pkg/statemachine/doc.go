/*
Package statemachine builds a hierarchical state machine on top of a
package actor Behavior per state, per §4.3: a State stack (Goto replaces
the top frame, Push adds a frame, Pop removes one), entry/exit actions
run synchronously around a transition, and event lookup searches the
stack top-down before falling back to each state's wildcard handler, so
an enclosing (pushed-under) state can act as a default handler for
states pushed above it.

Machine itself never touches a goroutine or channel; package runtime
drives it, translating an actor.Context's Goto/Push/Pop calls into
Machine method calls and reporting any transition error to the active
failure.Sink.
*/
package statemachine
