/*
Package scheduler implements the controlled-concurrency engine described
in §4.6 and §5: every actor's handler runs on its own goroutine, but at
each decision point (send, create, receive, raise, random choice, or an
explicit yield) that goroutine hands control to a single driver loop
before proceeding, so a Strategy can choose deterministically which
enabled operation runs next.

The handoff is baton passing: each registered operation gets a
capacity-1 resume channel. Yielding means recording the operation's new
Status, sending a notification on the shared handoff channel, and then
blocking on the operation's own resume channel until the driver sends it
the baton back. The capacity-1 buffering matters at actor-creation time:
a parent registers its child's operation (synchronously, under lock)
before spawning the child's goroutine, so the driver may pick and
resume that child before its goroutine has even reached its first
receive on that channel — the buffered send does not block on that.

The driver loop owns exactly one piece of mutable truth - which
operations are Enabled right now - and a Strategy never touches it
directly; it only ever answers "which of these enabled operations goes
next" and "what's the next random value", which keeps every Strategy
implementation pure and replay-deterministic for a fixed seed.
*/
package scheduler
