package cli_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/sysown/internal/cli"
	"github.com/calvinalkan/sysown/pkg/owner"
)

// Tests for print-config and config loading.

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "on_close_error=log")
	cli.AssertContains(t, stdout, "log_level=warning")
	cli.AssertContains(t, stdout, "track_leaks=true")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_From_Project_Config_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	path := c.WriteFile(cli.ConfigFileName, `{
		// quieter
		"log_level": "error",
		"track_leaks": false,
	}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "log_level=error")
	cli.AssertContains(t, stdout, "track_leaks=false")
	cli.AssertContains(t, stdout, "project_config="+path)
}

func Test_Print_Config_Explicit_Config_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("custom.json", `{"log_level": "info"}`)

	stdout := c.MustRun("-c", "custom.json", "print-config")
	cli.AssertContains(t, stdout, "log_level=info")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, "custom.json"))
}

func Test_Print_Config_Global_Config_From_XDG_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["XDG_CONFIG_HOME"] = filepath.Join(c.Dir, "xdg")
	path := c.WriteFile(filepath.Join("xdg", "fdprobe", "config.json"), `{"log_level": "debug"}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "log_level=debug")
	cli.AssertContains(t, stdout, "global_config="+path)
}

func Test_Print_Config_Project_Config_Overrides_Global_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.Env["XDG_CONFIG_HOME"] = filepath.Join(c.Dir, "xdg")
	c.WriteFile(filepath.Join("xdg", "fdprobe", "config.json"), `{"log_level": "debug", "track_leaks": false}`)
	c.WriteFile(cli.ConfigFileName, `{"log_level": "error"}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "log_level=error")
	cli.AssertContains(t, stdout, "track_leaks=false")
}

func Test_Print_Config_Flags_Override_Config_Files_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(cli.ConfigFileName, `{"log_level": "error", "on_close_error": "log"}`)

	stdout := c.MustRun("--log-level=info", "--on-close-error=panic", "print-config")
	cli.AssertContains(t, stdout, "log_level=info")
	cli.AssertContains(t, stdout, "on_close_error=panic")
}

func Test_Config_Errors_When_Invoked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		args    []string
		wantErr []string
	}{
		{
			name:    "invalid on_close_error",
			file:    `{"on_close_error": "explode"}`,
			args:    []string{"print-config"},
			wantErr: []string{"invalid config file", "on_close_error", "explode"},
		},
		{
			name:    "invalid log_level",
			file:    `{"log_level": "loud"}`,
			args:    []string{"print-config"},
			wantErr: []string{"invalid config file", "log_level"},
		},
		{
			name:    "malformed JSONC",
			file:    `{"log_level": `,
			args:    []string{"print-config"},
			wantErr: []string{"invalid JSONC"},
		},
		{
			name:    "missing explicit config",
			args:    []string{"-c", "nope.json", "print-config"},
			wantErr: []string{"config file not found", "nope.json"},
		},
		{
			name:    "invalid flag value",
			args:    []string{"--on-close-error=ignore", "print-config"},
			wantErr: []string{"on_close_error", "ignore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			if tt.file != "" {
				c.WriteFile(cli.ConfigFileName, tt.file)
			}

			stderr := c.MustFail(tt.args...)
			for _, want := range tt.wantErr {
				cli.AssertContains(t, stderr, want)
			}
		})
	}
}

func Test_Config_Options_Maps_Fields_To_Owner_Options(t *testing.T) {
	t.Parallel()

	cfg := cli.DefaultConfig()

	opts := cfg.Options(nil)
	if opts.OnDropError != owner.DropLog {
		t.Errorf("OnDropError=%v, want=%v", opts.OnDropError, owner.DropLog)
	}

	if !opts.TrackLeaks {
		t.Errorf("TrackLeaks=false, want=true")
	}

	off := false
	cfg.OnCloseError = "panic"
	cfg.TrackLeaks = &off

	opts = cfg.Options(nil)
	if opts.OnDropError != owner.DropPanic {
		t.Errorf("OnDropError=%v, want=%v", opts.OnDropError, owner.DropPanic)
	}

	if opts.TrackLeaks {
		t.Errorf("TrackLeaks=true, want=false")
	}
}
