package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CommanderOutput is a box showing raw J-Link Commander output in verbose
// mode and after failures.
type CommanderOutput struct {
	Title    string
	Lines    []string
	Width    int
	MaxLines int // Keep only the last MaxLines lines (0 = unlimited)
}

// NewCommanderOutput creates an output box for content.
func NewCommanderOutput(content string) *CommanderOutput {
	return &CommanderOutput{
		Title: "J-Link Output",
		Lines: strings.Split(strings.TrimRight(content, "\n"), "\n"),
		Width: GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (o *CommanderOutput) SetWidth(width int) *CommanderOutput {
	o.Width = width
	return o
}

// SetMaxLines limits the box to the last max lines. The commander prints
// its banner first, so the tail is where errors show up.
func (o *CommanderOutput) SetMaxLines(max int) *CommanderOutput {
	o.MaxLines = max
	return o
}

// FilterLines keeps only lines containing one of the patterns.
func (o *CommanderOutput) FilterLines(patterns ...string) *CommanderOutput {
	var filtered []string
	for _, line := range o.Lines {
		for _, pattern := range patterns {
			if strings.Contains(line, pattern) {
				filtered = append(filtered, line)
				break
			}
		}
	}
	o.Lines = filtered
	return o
}

// Render returns the styled output box as a string
func (o *CommanderOutput) Render() string {
	width := o.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := o.Lines
	if o.MaxLines > 0 && len(lines) > o.MaxLines {
		lines = append([]string{"... (output truncated)"}, lines[len(lines)-o.MaxLines:]...)
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		OutputTitleStyle.Render(o.Title),
		"",
		OutputContentStyle.Render(strings.Join(lines, "\n")),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width-4).
		Padding(0, 1).
		MarginLeft(2).
		Render(inner)
}

// String implements fmt.Stringer
func (o *CommanderOutput) String() string {
	return o.Render()
}
