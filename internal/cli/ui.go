package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mindgraph/pkg/generate"
)

// Terminal palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Styles shared by the commands and the explore view.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// stdout receives all status output; tests swap it.
var stdout io.Writer = os.Stdout

// mark is the glyph that opens a status line.
type mark struct {
	glyph string
	style lipgloss.Style
}

var (
	markOK   = mark{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	markFail = mark{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	markWarn = mark{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	markInfo = mark{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (m mark) print(text string) {
	fmt.Fprintln(stdout, m.style.Render(m.glyph)+" "+text)
}

func printSuccess(format string, args ...any) { markOK.print(fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { markFail.print(fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { markInfo.print(fmt.Sprintf(format, args...)) }
func printWarning(format string, args ...any) {
	markWarn.print(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written output file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a command to run next.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// statsLine summarizes a generation, e.g.
// "12 ideas · 5 steps · 840 tokens · fresh". Zero steps and zero tokens
// are left out; "cached" replaces "fresh" when any reply came from the
// cache.
func statsLine(st generate.Stats) string {
	parts := []string{fmt.Sprintf("%d ideas", st.TreeNodes)}
	if st.DiagramNodes > 0 {
		parts = append(parts, fmt.Sprintf("%d steps", st.DiagramNodes))
	}
	if tokens := st.InputTokens + st.OutputTokens; tokens > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", tokens))
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}

	origin := lipgloss.NewStyle().Foreground(colorGray).Render("fresh")
	if st.CacheHits > 0 {
		origin = lipgloss.NewStyle().Foreground(colorGreen).Render("cached")
	}
	return "  " + strings.Join(append(parts, origin), StyleDim.Render(" · "))
}

func printStats(st generate.Stats) {
	fmt.Fprintln(stdout, statsLine(st))
}
