// pattern: Imperative Shell
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Skarian/seshmux/internal/doctor"
)

// ResolveConfigDir returns the directory holding config.toml and diagnostics
// logs. If configDir is specified, uses that; otherwise ~/.config/seshmux,
// honoring XDG_CONFIG_HOME.
func ResolveConfigDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "seshmux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "seshmux")
	}
	return filepath.Join(home, ".config", "seshmux")
}

// BuildApp creates and configures the CLI application with all commands.
func BuildApp(version string, configDir string) *App {
	app := NewApp(version)

	app.AddCommand(&Command{
		Name:    "doctor",
		Summary: "Check the environment and configuration",
		Usage:   "Usage: seshmux doctor",
		Run: func(args []string) error {
			return runDoctorCommand(configDir)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: seshmux version",
		Run: func(args []string) error {
			fmt.Println(version)
			return nil
		},
	})

	return app
}

// runDoctorCommand runs every environment check and reports failure as an
// error, so the process exits non-zero and scripts can gate on it.
func runDoctorCommand(configDir string) error {
	d := doctor.New()
	if configDir != "" {
		d = doctor.NewAt(filepath.Join(configDir, "config.toml"))
	}
	if ok := runDoctor(os.Stdout, d); !ok {
		return errors.New("environment checks failed")
	}
	return nil
}

// runDoctor is the internal implementation, split out for testing.
func runDoctor(w io.Writer, d *doctor.Doctor) bool {
	report := d.Run(context.Background())
	fmt.Fprint(w, report.Render())
	return report.AllPassed()
}
