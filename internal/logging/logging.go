package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	addedColor   = color.New(color.FgGreen)
	changedColor = color.New(color.FgYellow)
	removedColor = color.New(color.FgRed)
)

// Logger provides console logging for the CLI
type Logger struct {
	quiet bool
}

// NewLogger creates a new logger
func NewLogger(quiet bool) *Logger {
	return &Logger{quiet: quiet}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if !l.quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "WARN: "+format+"\n", args...)
}

// Entry logs one classified component with a colored status column
func (l *Logger) Entry(status, componentType, fullName string) {
	if l.quiet {
		return
	}

	var c *color.Color
	switch status {
	case "Added":
		c = addedColor
	case "Changed":
		c = changedColor
	case "Removed":
		c = removedColor
	default:
		fmt.Printf("%-9s %s/%s\n", status, componentType, fullName)
		return
	}
	c.Printf("%-9s", status)
	fmt.Printf(" %s/%s\n", componentType, fullName)
}

// PrintSummary prints a summary of a comparison run
func (l *Logger) PrintSummary(added, changed, removed, unchanged int, duration time.Duration) {
	if l.quiet {
		return
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Added: %d\n", added)
	fmt.Printf("Changed: %d\n", changed)
	fmt.Printf("Removed: %d\n", removed)
	fmt.Printf("Unchanged: %d\n", unchanged)
	fmt.Printf("Duration: %s\n", duration.Round(time.Millisecond))
}
