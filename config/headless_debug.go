//go:build debug

package config

const defaultHeadless = false
