// Package httpclient provides the pooled HTTP client shared by the status
// page fetcher and the hub publisher.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with a base address, per-request timeouts
//     and response size limits
//   - [Request]: A single request relative to the base address
//   - [Response]: Result of a request, with errors captured rather than returned
package httpclient
