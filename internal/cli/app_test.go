package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestExecute_NoArgsLaunchesTUI(t *testing.T) {
	app := NewApp("test")
	launch, err := app.Execute(nil)
	if err != nil {
		t.Fatalf("Execute() with no args returned error: %v", err)
	}
	if !launch {
		t.Error("Execute() with no args = false, want true (launch TUI)")
	}
}

func TestExecute_KnownCommandRuns(t *testing.T) {
	app := NewApp("test")
	var gotArgs []string
	app.AddCommand(&Command{
		Name: "doctor",
		Run: func(args []string) error {
			gotArgs = args
			return nil
		},
	})

	launch, err := app.Execute([]string{"doctor", "extra"})
	if err != nil {
		t.Fatalf("Execute() returned error: %v", err)
	}
	if launch {
		t.Error("Execute() with a command = true, want false")
	}
	if len(gotArgs) != 1 || gotArgs[0] != "extra" {
		t.Errorf("command received args %v, want [extra]", gotArgs)
	}
}

func TestExecute_CommandErrorPropagates(t *testing.T) {
	app := NewApp("test")
	boom := errors.New("checks failed")
	app.AddCommand(&Command{
		Name: "doctor",
		Run:  func(args []string) error { return boom },
	})

	_, err := app.Execute([]string{"doctor"})
	if !errors.Is(err, boom) {
		t.Errorf("Execute() swallowed the command error, got %v", err)
	}
}

func TestExecute_UnknownCommandErrors(t *testing.T) {
	app := NewApp("test")
	launch, err := app.Execute([]string{"bogus"})
	if launch {
		t.Error("unknown command should not launch the TUI")
	}
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("Execute() error = %v, want one naming the unknown command", err)
	}
}

func TestExecute_HelpFlagSkipsRun(t *testing.T) {
	app := NewApp("test")
	ran := false
	app.AddCommand(&Command{
		Name:  "doctor",
		Usage: "Usage: seshmux doctor",
		Run: func(args []string) error {
			ran = true
			return nil
		},
	})

	if _, err := app.Execute([]string{"doctor", "--help"}); err != nil {
		t.Fatalf("Execute() with --help returned error: %v", err)
	}
	if ran {
		t.Error("command ran despite --help")
	}
}

func TestPrintHelp_ListsCommands(t *testing.T) {
	app := BuildApp("test", "")
	var buf bytes.Buffer
	app.PrintHelp(&buf)

	out := buf.String()
	for _, want := range []string{"doctor", "version", "(none)", "seshmux"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintHelp() output missing %q:\n%s", want, out)
		}
	}
}
