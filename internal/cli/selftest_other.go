//go:build !linux

package cli

func platformChecks() []check { return nil }
