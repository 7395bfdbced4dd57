/*
Package coreid provides the immutable identity values shared across the
runtime: ActorId (a stable per-actor handle, never reused after halt) and
EventGroup (an opaque causal tag correlating a chain of sends and
handlers). Both are opaque to user code beyond their String() form; the
runtime is the only thing that constructs them.
*/
package coreid
