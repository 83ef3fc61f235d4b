// Package ui renders colored console output for the limpopo-ai CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const ruleWidth = 70

var (
	successBadge = color.New(color.FgGreen, color.Bold)
	errorBadge   = color.New(color.FgRed, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)

	titleText  = color.New(color.FgHiCyan, color.Bold)
	labelText  = color.New(color.FgCyan)
	mutedText  = color.New(color.FgHiBlack)
	accentText = color.New(color.FgMagenta, color.Bold)
)

// Console writes styled lines to w. Color is controlled globally by
// color.NoColor, which fatih/color sets when w is not a terminal.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Banner prints a title framed by two rules.
func (c *Console) Banner(title string) {
	c.Rule()
	titleText.Fprintln(c.w, title)
	c.Rule()
	c.Blank()
}

func (c *Console) Rule() {
	mutedText.Fprintln(c.w, strings.Repeat("=", ruleWidth))
}

// Divider is the lighter separator printed between generated items.
func (c *Console) Divider() {
	mutedText.Fprintln(c.w, strings.Repeat("-", ruleWidth))
}

func (c *Console) Blank() {
	fmt.Fprintln(c.w)
}

func (c *Console) Line(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c *Console) Success(format string, args ...any) {
	successBadge.Fprint(c.w, "✓ ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c *Console) Failure(format string, args ...any) {
	errorBadge.Fprint(c.w, "✗ ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c *Console) Warning(format string, args ...any) {
	warningBadge.Fprint(c.w, "⚠️  ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

// Field prints an indented "label: value" pair.
func (c *Console) Field(label, value string) {
	fmt.Fprint(c.w, "  ")
	labelText.Fprintf(c.w, "%s:", label)
	fmt.Fprintf(c.w, " %s\n", value)
}

// Heading prints an accented section label such as "AI Response:".
func (c *Console) Heading(text string) {
	accentText.Fprintln(c.w, text)
}

// MaskToken returns a short masked form of a credential.
// Format: xxxx...xxxx
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
