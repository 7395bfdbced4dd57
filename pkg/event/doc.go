/*
Package event defines the immutable message values actors exchange, the
built-in events (HaltEvent, which actors send or raise, and DefaultEvent,
which the queue synthesizes), the WildCardEventType dispatch key, and the
per-enqueue metadata (Info) the queue records for tracing and
diagnostics. Events are never mutated after Enqueue
accepts them; construct a new value instead of editing one in place.
*/
package event
