/*
Package runtime is the controlled runtime described in §4.5: it wires
package actor's Behavior dispatch tables and package statemachine's
Machine stacks to package queue's inboxes and package scheduler's
baton-passing driver, and implements the actor.Context and
statemachine.Context interfaces those packages only describe.

Creating an actor registers an operation with the scheduler and spawns
its handler goroutine; sending, raising, creating a child, or making a
random choice all route through the owning operation's scheduler.Handle
so the decision happens at a point the active Strategy controls.
Runtime never runs a handler directly - every user-visible side effect
happens on the actor's own goroutine, parked on the scheduler until it's
that operation's turn.
*/
package runtime
