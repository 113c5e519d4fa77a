package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okStyle    = color.New(color.FgGreen, color.Bold)
	denyStyle  = color.New(color.FgRed, color.Bold)
	noteStyle  = color.New(color.FgYellow)
	labelStyle = color.New(color.FgCyan)
)

func printOK(w io.Writer, format string, args ...any) {
	okStyle.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func printNote(w io.Writer, format string, args ...any) {
	noteStyle.Fprintf(w, format+"\n", args...)
}

// printChanged reports a mutation that may have been a no-op.
func printChanged(w io.Writer, changed bool, done, unchanged string) {
	if changed {
		printOK(w, "%s", done)
		return
	}
	printNote(w, "%s", unchanged)
}
