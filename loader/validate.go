package loader

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/engine/actions"
	"github.com/JasFreaq/RPG-Project-sub000/engine/dialogue"
	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// HasErrors reports whether any problem makes the content unusable.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// validate logs every warning and returns the report as an error when it
// holds errors.
func validate(defs *state.Defs, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ve := Validate(defs)
	for _, w := range ve.Warnings {
		logger.Warn("content warning", "warning", w)
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// Validate checks compiled defs for referential integrity and consistency.
// The report is never nil; warnings alone do not make content unusable.
func Validate(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.errorf("Game.Title is required")
	}

	// NPCs using each dialogue, for quest defaults on actions.
	speakers := map[string][]types.NPCDef{}

	for _, id := range sortedKeys(defs.NPCs) {
		npc := defs.NPCs[id]
		switch {
		case npc.Dialogue == "":
			ve.warnf("npc %s has no dialogue", id)
		case !hasKey(defs.Dialogues, npc.Dialogue):
			ve.errorf("npc %s: dialogue %q not found", id, npc.Dialogue)
		default:
			speakers[npc.Dialogue] = append(speakers[npc.Dialogue], npc)
		}
		if npc.Quest != "" && !hasKey(defs.Quests, npc.Quest) {
			ve.errorf("npc %s: quest %q not found", id, npc.Quest)
		}
		for _, ally := range npc.Allies {
			switch {
			case ally == id:
				ve.warnf("npc %s lists itself as an ally", id)
			case !hasKey(defs.NPCs, ally):
				ve.errorf("npc %s: ally %q not found", id, ally)
			}
		}
	}

	for _, id := range sortedKeys(defs.Quests) {
		q := defs.Quests[id]
		if q.Title == "" {
			ve.warnf("quest %s has no title", id)
		}
		seen := map[string]bool{}
		for i, obj := range q.Objectives {
			if obj.Reference == "" {
				ve.errorf("quest %s: objective %d has no id", id, i+1)
				continue
			}
			if seen[obj.Reference] {
				ve.errorf("quest %s: duplicate objective %q", id, obj.Reference)
			}
			seen[obj.Reference] = true
		}
	}

	for _, id := range sortedKeys(defs.Dialogues) {
		validateDialogue(ve, defs, id, speakers[id])
	}

	return ve
}

func validateDialogue(ve *ValidationError, defs *state.Defs, id string, npcs []types.NPCDef) {
	def := defs.Dialogues[id]
	if def.ID != id {
		ve.errorf("dialogue %s: declared id %q does not match", id, def.ID)
	}
	g, err := dialogue.NewGraph(def)
	if err != nil {
		ve.errorf("dialogue %s: %v", id, err)
		return
	}

	reachable := map[types.NodeID]bool{}
	for _, nid := range g.Reachable() {
		reachable[nid] = true
	}

	for _, nd := range def.Nodes {
		where := fmt.Sprintf("dialogue %s node %s", id, nd.ID)
		if nd.ID == "" {
			ve.errorf("dialogue %s: node with empty id", id)
			continue
		}
		if nd.Text == "" {
			ve.warnf("%s has no text", where)
		}
		if !reachable[nd.ID] {
			ve.warnf("%s is unreachable from root %s", where, g.Root().ID())
		}
		for _, child := range nd.ChildIDs {
			if g.Node(child) == nil {
				ve.warnf("%s: child %s not found", where, child)
			}
		}
		for i, d := range nd.Condition.And {
			if len(d.Or) == 0 {
				ve.warnf("%s: condition group %d is empty and never passes", where, i+1)
			}
			for _, p := range d.Or {
				validatePredicate(ve, defs, where, p)
			}
		}
		for _, a := range nd.Actions {
			validateAction(ve, defs, where, a, npcs)
		}
		for _, a := range nd.ExitActions {
			validateAction(ve, defs, where+" (exit)", a, npcs)
		}
	}
}

func validatePredicate(ve *ValidationError, defs *state.Defs, where string, p types.Predicate) {
	switch p.Type {
	case types.PredicateNone:

	case types.PredicateHasQuest, types.PredicateCompletedQuest:
		if len(p.Parameters) == 0 || p.Parameters[0] == "" {
			ve.errorf("%s: %s needs a quest", where, p.Type)
			return
		}
		if !hasKey(defs.Quests, p.Parameters[0]) {
			ve.warnf("%s: %s names unknown quest %q", where, p.Type, p.Parameters[0])
		}

	case types.PredicateCompletedObjective:
		quest, objective := state.ObjectiveParams(p.Parameters)
		if quest == "" || objective == "" {
			ve.errorf("%s: %s needs a quest and an objective", where, p.Type)
			return
		}
		checkObjective(ve, defs, where, quest, objective)

	case types.PredicateHasItem:
		if len(p.Parameters) == 0 || p.Parameters[0] == "" {
			ve.errorf("%s: %s needs an item", where, p.Type)
			return
		}
		if !hasKey(defs.Items, p.Parameters[0]) {
			ve.warnf("%s: %s names unknown item %q", where, p.Type, p.Parameters[0])
		}
		if len(p.Parameters) > 1 {
			if n, err := strconv.Atoi(p.Parameters[1]); err != nil || n <= 0 {
				ve.errorf("%s: %s count %q is not a positive number", where, p.Type, p.Parameters[1])
			}
		}

	default:
		ve.errorf("%s: unknown predicate type %q", where, p.Type)
	}
}

func validateAction(ve *ValidationError, defs *state.Defs, where string, a types.ActionData, npcs []types.NPCDef) {
	if actions.RequiresParameter(a.Action) && a.Parameter == "" {
		ve.errorf("%s: %s requires a parameter", where, a.Action)
		return
	}

	switch a.Action {
	case types.ActionNone, types.ActionAttack:

	case types.ActionGiveQuest, types.ActionCompleteQuest:
		if a.Parameter != "" {
			if !hasKey(defs.Quests, a.Parameter) {
				ve.errorf("%s: %s names unknown quest %q", where, a.Action, a.Parameter)
			}
			return
		}
		for _, npc := range npcs {
			if npc.Quest == "" {
				ve.errorf("%s: %s has no quest and npc %s has none configured", where, a.Action, npc.ID)
			}
		}

	case types.ActionCompleteObjective:
		if i := strings.Index(a.Parameter, ":"); i >= 0 {
			checkObjective(ve, defs, where, a.Parameter[:i], a.Parameter[i+1:])
			return
		}
		for _, npc := range npcs {
			if npc.Quest == "" {
				ve.errorf("%s: objective %q has no quest and npc %s has none configured", where, a.Parameter, npc.ID)
				continue
			}
			checkObjective(ve, defs, where, npc.Quest, a.Parameter)
		}

	case types.ActionEditInventory:
		edit, err := actions.ParseInventoryEdit(a.Parameter)
		if err != nil {
			ve.errorf("%s: %v", where, err)
			return
		}
		if !hasKey(defs.Items, edit.Item) {
			ve.warnf("%s: %s names unknown item %q", where, a.Action, edit.Item)
		}

	default:
		ve.errorf("%s: unknown action type %q", where, a.Action)
	}
}

func checkObjective(ve *ValidationError, defs *state.Defs, where, quest, objective string) {
	q, ok := defs.Quests[quest]
	if !ok {
		ve.warnf("%s: unknown quest %q", where, quest)
		return
	}
	if !state.HasObjective(q, objective) {
		ve.warnf("%s: quest %s has no objective %q", where, quest, objective)
	}
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
