/*
Package trace implements the stable, line-oriented trace log described in
§6 of the specification: a sequence of records of the form

	<Tag> payload

consumed by replay tooling and debugging aids. This format is a contract,
not a debugging convenience, so it is written directly to an io.Writer by
Recorder rather than routed through the zerolog-backed pkg/log. Parse
reverses the format for tests and for the CLI's replay subcommand.
*/
package trace
