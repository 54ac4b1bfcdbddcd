package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleYouSee = lipgloss.NewStyle().
			Bold(true)

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleSpeech = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	stylePlayerSpeech = lipgloss.NewStyle().
				Foreground(lipgloss.Color("117"))

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	styleNotice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78")).
			Italic(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindYouSee
	kindSpeech
	kindPlayerSpeech
	kindChoice
	kindNotice
	kindSystem
	kindError
	kindTrace
)

// Prefixes of lines reporting a change to quests, inventory or hostility.
var noticePrefixes = []string{
	"Quest accepted:",
	"Objective complete:",
	"Quest complete:",
	"Received:",
	"Handed over:",
}

// Prefixes of lines reporting that a command could not be carried out.
var errorPrefixes = []string{
	"There is nobody called",
	"Who do you mean",
	"You're not talking",
	"There's nothing to choose",
	"Choose a number",
	"I don't understand",
	"Talk to whom?",
}

// classifyLine determines what kind of output line this is. player is the
// name used for the player's own lines.
func classifyLine(line, player string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case isChoiceLine(line):
		return kindChoice
	case strings.HasPrefix(line, "You see:"):
		return kindYouSee
	case hasAnyPrefix(line, noticePrefixes), strings.HasSuffix(line, "turns hostile!"):
		return kindNotice
	case hasAnyPrefix(line, errorPrefixes),
		strings.HasSuffix(line, "refuses to speak with you."),
		strings.HasSuffix(line, "has nothing to say."):
		return kindError
	}
	if speaker, _, ok := splitSpeech(line); ok {
		if speaker == player {
			return kindPlayerSpeech
		}
		return kindSpeech
	}
	return kindNarration
}

// isChoiceLine matches "  3. text".
func isChoiceLine(line string) bool {
	rest := strings.TrimLeft(line, " ")
	if len(rest) == len(line) {
		return false
	}
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	return i > 0 && strings.HasPrefix(rest[i:], ". ")
}

// splitSpeech splits "Speaker: text". Speaker names are short and contain
// no sentence punctuation.
func splitSpeech(line string) (speaker, text string, ok bool) {
	i := strings.Index(line, ": ")
	if i <= 0 || i > 40 {
		return "", "", false
	}
	speaker = line[:i]
	if strings.ContainsAny(speaker, ".!?:") {
		return "", "", false
	}
	return speaker, line[i+2:], true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// styledYouSee renders "You see: A, B." with the names bold.
func styledYouSee(line string) string {
	const prefix = "You see: "
	if !strings.HasPrefix(line, prefix) {
		return styleNarration.Render(line)
	}
	return styleNarration.Render(prefix) + styleYouSee.Render(line[len(prefix):])
}

// styledSpeech renders "Speaker: text" with the speaker highlighted.
func styledSpeech(line string, textStyle lipgloss.Style) string {
	speaker, text, ok := splitSpeech(line)
	if !ok {
		return textStyle.Render(line)
	}
	return styleSpeaker.Render(speaker+":") + " " + textStyle.Render(text)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
