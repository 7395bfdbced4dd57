/*
Package monitor implements specification monitors per §4.4: a flat state
machine with no inbox of its own, fed synchronously the events actors
pass to ctx.Monitor, whose states are tagged cold or hot. A monitor
reaching a hot state and staying there starts a liveness clock; the
scheduler's driver loop, when the active strategy is fair, decides when
a run has stayed hot long enough to report a liveness bug.

The hot/cold step counter here is grounded on the same
consecutive-success/consecutive-failure counting pattern used for
health-check results elsewhere in the stack: StepTemperature increments
while hot and resets to zero the instant the monitor leaves a hot state.
*/
package monitor
