//go:build !debug

package config

// defaultHeadless is true in production builds; build with -tags debug to
// watch the browser.
const defaultHeadless = true
