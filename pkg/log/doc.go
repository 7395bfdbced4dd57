/*
Package log provides structured logging for Conclave using zerolog.

It wraps zerolog to give every component (scheduler, runtime, actor,
monitor, testengine) a consistently-tagged logger, separate from the
trace log format in pkg/trace. The trace log is a stable, line-oriented
interface consumed by replay tooling; this package is for ordinary
operational diagnostics and is free to change shape.

Initializing:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

Component loggers:

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Msg("iteration started")

	actorLog := log.WithActorID(id.String())
	actorLog.Debug().Str("event", "Ping").Msg("dispatching")
*/
package log
