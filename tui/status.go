package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
)

// displayName derives a human-readable name from an ID.
// "iron_ore" -> "Iron Ore", "old_key" -> "Old Key".
func displayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// conversationLabel describes the current conversation for the status bar.
func (m Model) conversationLabel() string {
	c := m.engine.Conversation
	switch {
	case c.IsChoosing():
		return "Talking to " + c.NPC().Name() + " (choose a reply)"
	case c.IsActive():
		return "Talking to " + c.NPC().Name()
	default:
		return m.defs.Game.Title
	}
}

// questProgress counts accepted and completed quests.
func (m Model) questProgress() (done, total int) {
	s := m.engine.State
	for _, q := range s.Player.Quests {
		total++
		if state.CompletedQuest(s, m.defs, q.Quest) {
			done++
		}
	}
	return done, total
}

// itemNames lists carried items by display name, in ID order.
func (m Model) itemNames() []string {
	inv := m.engine.State.Player.Inventory
	var names []string
	for _, id := range sortedIDs(inv) {
		name := displayName(id)
		if it, ok := m.defs.Items[id]; ok && it.Name != "" {
			name = it.Name
		}
		if n := inv[id]; n > 1 {
			name = fmt.Sprintf("%s x%d", name, n)
		}
		names = append(names, name)
	}
	return names
}

// renderStatusBar produces a full-width inverted status line showing the
// conversation partner, quest progress, inventory and turn count.
func (m Model) renderStatusBar() string {
	s := m.engine.State

	left := " " + m.conversationLabel()

	right := fmt.Sprintf("T:%d ", s.TurnCount)
	if done, total := m.questProgress(); total > 0 {
		right = fmt.Sprintf("Quests: %d/%d | %s", done, total, right)
	}

	// Show inventory items if they fit, otherwise just count.
	if names := m.itemNames(); len(names) > 0 {
		candidate := fmt.Sprintf("Inv: %s | %s", strings.Join(names, ", "), right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s", len(names), right)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
