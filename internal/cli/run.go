package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/owner"
)

// Run is the main entry point. Returns exit code.
func Run(ctx context.Context, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	globals := flag.NewFlagSet("fdprobe", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use config `file`")
	logLevel := globals.String("log-level", "", "Log `level` (panic, fatal, error, warn, info, debug, trace)")
	onCloseError := globals.String("on-close-error", "", "Reaction to a failed close on drop: log or panic")
	help := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	if err := globals.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, nil)

		return ExitUsage
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		Overrides:       Config{LogLevel: *logLevel, OnCloseError: *onCloseError},
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return ExitFailure
	}

	logger := cfg.NewLogger(errOut)

	prev := owner.CurrentOptions()
	owner.Configure(cfg.Options(logger))

	defer owner.Configure(prev)

	commands := allCommands(&cfg)

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, commands)

		return ExitOK
	}

	name := rest[0]
	for _, cmd := range commands {
		if cmd.Name() == name {
			logger.WithField("command", name).Debug("running command")

			return cmd.Run(ctx, NewIO(out, errOut), rest[1:])
		}
	}

	fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
	printUsage(errOut, globals, commands)

	return ExitUsage
}

func allCommands(cfg *Config) []*Command {
	cmds := []*Command{
		CatCmd(cfg),
		LsCmd(cfg),
		MapCopyCmd(cfg),
		LockCmd(cfg),
		SelfTestCmd(cfg),
		PrintConfigCmd(cfg),
	}

	return append(cmds, platformCommands(cfg)...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, "fdprobe - inspect kernel handles through owned wrappers")
	fprintln(w)
	fprintln(w, "Usage: fdprobe [global flags] <command> [args]")

	if len(commands) > 0 {
		fprintln(w)
		fprintln(w, "Commands:")

		for _, cmd := range commands {
			fprintln(w, cmd.HelpLine())
		}
	}

	fprintln(w)
	fprintln(w, "Global flags:")

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

// resolvePath makes path absolute against the effective working directory.
func resolvePath(cfg *Config, path string) string {
	if filepath.IsAbs(path) || cfg.EffectiveCwd == "" {
		return path
	}

	return filepath.Join(cfg.EffectiveCwd, path)
}
