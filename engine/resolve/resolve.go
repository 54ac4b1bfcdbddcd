// Package resolve maps names typed by the player to NPC IDs.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
)

// AmbiguityError indicates multiple NPCs matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("who do you mean by %q? (%s)", e.Name, names)
}

// NotFoundError indicates no NPC matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("there is nobody called %q here", e.Name)
}

// NPC resolves a name to an NPC ID. Exact IDs win; otherwise the display
// name is matched whole or by any single word.
func NPC(defs *state.Defs, name string) (string, error) {
	if _, ok := defs.NPCs[name]; ok {
		return name, nil
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))
	var matches []string
	for id, def := range defs.NPCs {
		if matchesName(id, def.Name, nameLower) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)

	// A full-name hit beats word hits ("guard" vs "Old Guard" and "Guard").
	if len(matches) > 1 {
		var exact []string
		for _, id := range matches {
			if strings.ToLower(defs.NPCs[id].Name) == nameLower || strings.ToLower(id) == nameLower {
				exact = append(exact, id)
			}
		}
		if len(exact) == 1 {
			return exact[0], nil
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: displayNames(defs, matches)}
	}
}

// matchesName checks an NPC's display name and ID against the query
// (case-insensitive). Supports exact match, word-based partial match, and
// underscore normalization of IDs.
func matchesName(id, display, nameLower string) bool {
	if nameLower == "" {
		return false
	}
	displayLower := strings.ToLower(display)
	if displayLower == nameLower {
		return true
	}
	// e.g. "guard" matches "Old Guard".
	for _, word := range strings.Fields(displayLower) {
		if word == nameLower {
			return true
		}
	}
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return true
	}
	// "old guard" matches "old_guard".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}

func displayNames(defs *state.Defs, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := defs.NPCs[id].Name; n != "" {
			names = append(names, n)
			continue
		}
		names = append(names, id)
	}
	return names
}
