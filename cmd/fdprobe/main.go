// Package main provides fdprobe, a small tool that drives every owned handle
// kind against the running kernel.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/calvinalkan/sysown/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(ctx, os.Stdout, os.Stderr, os.Args, env)

	stop()
	os.Exit(exitCode)
}
