package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

func Test_ExecSelfTest_Reports_Each_Outcome(t *testing.T) {
	t.Parallel()

	var dirs []string

	checks := []check{
		{name: "good", run: func(scratch string) error {
			dirs = append(dirs, scratch)
			return nil
		}},
		{name: "absent", run: func(string) error { return fmt.Errorf("%w: no kernel support", errSkipped) }},
		{name: "broken", run: func(string) error { return errors.New("boom") }},
	}

	var out bytes.Buffer

	err := execSelfTest(context.Background(), NewIO(&out, &out), checks)
	if err == nil {
		t.Fatalf("execSelfTest: want error for failing check")
	}

	AssertContains(t, err.Error(), "1 of 3 checks failed: [broken]")
	AssertContains(t, out.String(), "ok    good\n")
	AssertContains(t, out.String(), "skip  absent: skipped: no kernel support\n")
	AssertContains(t, out.String(), "FAIL  broken: boom\n")

	if len(dirs) != 1 {
		t.Fatalf("good check ran %d times, want 1", len(dirs))
	}

	if _, err := os.Stat(dirs[0]); !os.IsNotExist(err) {
		t.Errorf("scratch dir %s not removed: %v", dirs[0], err)
	}
}

func Test_ExecSelfTest_Stops_When_Context_Is_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	checks := []check{{name: "never", run: func(string) error {
		ran = true
		return nil
	}}}

	err := execSelfTest(ctx, NewIO(&bytes.Buffer{}, &bytes.Buffer{}), checks)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("execSelfTest: err=%v, want %v", err, context.Canceled)
	}

	if ran {
		t.Errorf("check ran after cancellation")
	}
}
