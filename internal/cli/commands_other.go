//go:build !linux

package cli

func platformCommands(*Config) []*Command { return nil }
