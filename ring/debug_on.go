//go:build tiered_debug

package ring

const debugChecks = true
