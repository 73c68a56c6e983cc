package cli_test

import (
	"strings"
	"testing"

	"github.com/calvinalkan/sysown/internal/cli"
)

func Test_No_Command_Prints_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run()

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stderr, ""; got != want {
		t.Errorf("stderr=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stdout, "Usage: fdprobe")
	cli.AssertContains(t, stdout, "Commands:")
	cli.AssertContains(t, stdout, "cat <file>...")
	cli.AssertContains(t, stdout, "selftest")
	cli.AssertContains(t, stdout, "--on-close-error")
}

func Test_Invalid_Global_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("--invalid-flag", "ls")

	if got, want := exitCode, cli.ExitUsage; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "unknown flag")
	cli.AssertContains(t, stderr, "--invalid-flag")

	cli.AssertContains(t, stderr, "Global flags:")
	cli.AssertContains(t, stderr, "--help")
	cli.AssertContains(t, stderr, "--cwd")
	cli.AssertContains(t, stderr, "--config")
	cli.AssertContains(t, stderr, "--log-level")
}

func Test_Unknown_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("frobnicate")

	if got, want := exitCode, cli.ExitUsage; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "unknown command: frobnicate")
	cli.AssertContains(t, stderr, "Commands:")
}

func Test_Command_Help_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("lock", "--help")

	cli.AssertContains(t, stdout, "Usage: fdprobe lock")
	cli.AssertContains(t, stdout, "Flags:")
	cli.AssertContains(t, stdout, "--shared")
	cli.AssertContains(t, stdout, "--wait")
}

func Test_Command_Invalid_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("ls", "--bogus")

	if got, want := exitCode, cli.ExitUsage; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "unknown flag: --bogus")
	cli.AssertContains(t, stderr, "Usage: fdprobe ls")
}

func Test_Command_Missing_Argument_Exits_With_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("lock")

	if got, want := exitCode, cli.ExitUsage; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "missing argument")
	cli.AssertContains(t, stderr, "Usage: fdprobe lock")
	cli.AssertContains(t, stderr, "--shared")
}

func Test_Command_Operation_Failure_Exits_Without_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	_, stderr, exitCode := c.Run("ls", "nope")

	if got, want := exitCode, cli.ExitFailure; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "no such file or directory")

	if strings.Contains(stderr, "Usage:") {
		t.Errorf("stderr=%q, want no usage text", stderr)
	}
}

func Test_Debug_Log_Level_Logs_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	_, stderr, exitCode := c.Run("--log-level=debug", "print-config")

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "level=debug")
	cli.AssertContains(t, stderr, "command=print-config")
}
