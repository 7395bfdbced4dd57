/*
Package failure defines the fatal-failure channel described in §7: the
common sink actors, state machines, monitors, the runtime, and the
scheduler all report protocol-fatal conditions to, instead of returning
error values from the operation that detected them. The implementations
are the testing scheduler, which records one Bug per iteration and
suppresses the rest, and SinkFunc for plain callbacks; there is no
production runtime and no OnFailure callback in this module. The
scheduler's policy follows §7's "Tests record the first failure per
iteration; subsequent errors in the same iteration are suppressed."
*/
package failure
