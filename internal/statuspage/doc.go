// Package statuspage decides whether the Ecobee status page reports every
// system as operational.
//
// [Checker.Check] never returns an error: navigation, render and timeout
// failures are logged and reported as not operational.
package statuspage
