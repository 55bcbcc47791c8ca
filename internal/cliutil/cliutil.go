// Package cliutil holds the terminal diagnostics shared by the client and
// server binaries: colored status lines and a tint-backed slog logger.
package cliutil

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var (
	Red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
	Green  = color.New(color.FgHiGreen).SprintFunc()
	Cyan   = color.New(color.FgHiCyan).SprintFunc()
	Yellow = color.New(color.FgHiYellow).SprintFunc()
)

// SetupLogger installs a tint-formatted slog.Default, colored only when
// stdout is a real terminal.
func SetupLogger(level slog.Level) {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

// PrintError writes a red "error: <msg>" line to stderr.
func PrintError(err error) {
	color.New(color.FgHiRed, color.Bold).Fprint(os.Stderr, "error: ")
	os.Stderr.WriteString(err.Error() + "\n")
}

// PrintOK writes a green checkmark line to stdout.
func PrintOK(msg string) {
	os.Stdout.WriteString(Green("✓ ") + msg + "\n")
}

// PrintInfo writes a cyan info line to stdout.
func PrintInfo(msg string) {
	os.Stdout.WriteString(Cyan("• ") + msg + "\n")
}
