/*
Package queue implements the per-actor event inbox described in §4.1: a
FIFO of inbox entries, a single-slot raise buffer that always takes
precedence over the FIFO, at most one pending receive, and the
handler-running flag that lets the runtime know whether it must spawn a
handler task after an enqueue. All operations are serialized under one
mutex per Queue. The lock is held while the Hooks policy queries
(IsEventIgnored, IsEventDeferred, HasDefaultHandler) are consulted; it is
not held while calling OnEventDropped or while handing an event to a
pending receive's result channel.

Dequeue's priority order — raised, then first non-ignored/non-deferred
FIFO entry, then a synthetic default, then NotAvailable — is the single
place that encodes the scheduling contract the rest of the runtime
depends on; see the DequeueResult docs for the outcome each path
produces.
*/
package queue
