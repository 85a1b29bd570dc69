// Package poller runs the check-then-publish cycle of the Ecobee status
// monitor.
//
// A [Loop] moves through Starting, Running, Stopping and Stopped exactly
// once. While running it checks the status page, publishes the observation
// to the hub, then waits a fixed interval after the cycle completes, so
// cycles never overlap. Failures inside a cycle are logged and never stop
// the loop; only failing to allocate the browser session at start is fatal.
//
// The main components are:
//
//   - [Loop]: The poll loop state machine
//   - [CycleResult]: Outcome of one cycle, emitted on [Loop.Results]
//   - [Checker], [Publisher]: The two collaborators invoked each cycle
package poller
