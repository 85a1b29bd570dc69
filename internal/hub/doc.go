// Package hub publishes the Ecobee health observation to the Home Assistant
// REST API as a sensor state.
//
// The main components are:
//
//   - [Publisher]: Builds and sends the sensor state for one observation
//   - [SensorState]: Outbound payload, {"state": "true"} or {"state": "false"}
//   - [StateResponse]: The fields of the hub's reply that are consumed
//   - [Result]: Outcome of a publish attempt
//   - [PublishError]: Classified failure carried in a Result
package hub
