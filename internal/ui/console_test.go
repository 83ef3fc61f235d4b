package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func newTestConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	return NewConsole(&buf), &buf
}

func TestConsole_Banner(t *testing.T) {
	c, buf := newTestConsole(t)
	c.Banner("Limpopo Connect")

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, strings.Repeat("=", ruleWidth), lines[0])
	require.Equal(t, "Limpopo Connect", lines[1])
	require.Equal(t, strings.Repeat("=", ruleWidth), lines[2])
	require.Equal(t, "", lines[3])
}

func TestConsole_StatusLines(t *testing.T) {
	c, buf := newTestConsole(t)
	c.Success("initialized %s", "client")
	c.Failure("Configuration Error: %s", "missing")
	c.Warning("token not set")
	c.Field("Model", "openai/gpt-5")

	require.Equal(t,
		"✓ initialized client\n"+
			"✗ Configuration Error: missing\n"+
			"⚠️  token not set\n"+
			"  Model: openai/gpt-5\n",
		buf.String())
}

func TestConsole_LineKeepsPercentInArgs(t *testing.T) {
	c, buf := newTestConsole(t)
	c.Line("A: %s", "100% local")
	require.Equal(t, "A: 100% local\n", buf.String())
}

func TestMaskToken(t *testing.T) {
	require.Equal(t, "", MaskToken(""))
	require.Equal(t, "***", MaskToken("short"))
	require.Equal(t, "ghp_...cdef", MaskToken("ghp_0123456789abcdef"))
}
