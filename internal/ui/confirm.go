package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// IsAffirmative reports whether answer is "Y" or "YES", ignoring case and
// surrounding whitespace.
func IsAffirmative(answer string) bool {
	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "Y", "YES":
		return true
	}
	return false
}

// ConfirmModel is a Bubble Tea model for a single line Y/N answer. Enter
// submits; Esc and Ctrl+C decline.
type ConfirmModel struct {
	prompt    string
	input     []rune
	done      bool
	confirmed bool
}

// NewConfirmModel creates a prompt model.
func NewConfirmModel(prompt string) ConfirmModel {
	return ConfirmModel{prompt: prompt}
}

// Init implements tea.Model
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		return m, nil
	}

	switch key.Type {
	case tea.KeyEnter:
		m.done = true
		m.confirmed = IsAffirmative(string(m.input))
		return m, tea.Quit
	case tea.KeyCtrlC, tea.KeyEsc:
		m.done = true
		m.confirmed = false
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input = append(m.input, key.Runes...)
	}

	return m, nil
}

// View implements tea.Model
func (m ConfirmModel) View() string {
	view := PromptStyle.Render(m.prompt) + string(m.input)
	if m.done {
		return view + "\n"
	}
	return view + "█"
}

// Confirmed reports whether the user answered yes.
func (m ConfirmModel) Confirmed() bool {
	return m.confirmed
}

// Answer returns the text typed so far.
func (m ConfirmModel) Answer() string {
	return string(m.input)
}

// Confirm asks prompt and reports whether the answer was Y or YES. On a
// terminal the question runs as a Bubble Tea program; otherwise one line
// is read from in. End of input without an answer declines.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK && IsTerminal(inFile) && IsTerminal(outFile) {
		program := tea.NewProgram(NewConfirmModel(prompt), tea.WithInput(inFile), tea.WithOutput(outFile))
		final, err := program.Run()
		if err != nil {
			return false, fmt.Errorf("confirmation prompt failed: %w", err)
		}
		return final.(ConfirmModel).Confirmed(), nil
	}

	return confirmLine(in, out, prompt)
}

func confirmLine(in io.Reader, out io.Writer, prompt string) (bool, error) {
	_, _ = fmt.Fprint(out, prompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		_, _ = fmt.Fprintln(out)
	}

	return IsAffirmative(line), nil
}

// SecureBootWarning lists what enabling secure boot does to the device.
var SecureBootWarning = []string{
	"This will enable Secure Boot mode",
	"which will write your public key in the OTP and turn off debug interface",
	"",
	"After that device will not be reprogrammed!",
	"Be sure you write your final images on the device.",
}

// ConfirmSecureBoot prints the secure boot warning and asks for a Y/N
// answer.
func ConfirmSecureBoot(p *Printer, in io.Reader) (bool, error) {
	p.PrintWarning("ENABLE SECURE BOOT", SecureBootWarning)
	p.Newline()
	return Confirm(in, p.Writer(), "Do you want to continue? (Y/N): ")
}
