/*
Package actor provides the event-dispatch building blocks shared by every
runtime participant, per §4.2: a Behavior (the event-type -> Handler
dispatch table, plus its ignore/defer/default-handler policy) built
fluently with Builder, and the Context interface a Handler uses to talk
back to the runtime (send, raise, create, make a scheduled random
choice) without this package importing package runtime.

package statemachine builds hierarchical states on top of Behavior;
plain actors that don't need a state stack use Behavior directly.
*/
package actor
