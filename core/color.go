package core

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/gophersh/gosh/core/config"
)

var promptColor = color.New(color.FgGreen, color.Bold)

// ColorPrinter renders text with or without ANSI colors based on the
// configured mode and whether the output is a terminal.
type ColorPrinter struct {
	mode       string
	isTerminal bool
}

func NewColorPrinter(mode string, isTerminal bool) *ColorPrinter {
	return &ColorPrinter{mode: mode, isTerminal: isTerminal}
}

func (c *ColorPrinter) ShouldColor() bool {
	switch c.mode {
	case config.ColorNever:
		return false
	case config.ColorAlways:
		return true
	default:
		return c.isTerminal
	}
}

func (c *ColorPrinter) Sprintf(col *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		// Copy so forcing color on doesn't leak into the shared value, which
		// otherwise consults the package's own TTY detection.
		enabled := *col
		enabled.EnableColor()
		return enabled.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
