//go:build !tiered_debug

package tiered

const debugChecks = false
