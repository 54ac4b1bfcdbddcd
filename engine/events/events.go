// Package events turns the events emitted during a step into player-facing
// narration. Single pass, in emission order.
package events

import (
	"fmt"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// Describe renders events as output lines. Events with nothing to tell the
// player (action_failed, unknown types) produce no line.
func Describe(evts []types.Event, defs *state.Defs) []string {
	var out []string
	for _, e := range evts {
		if line := describe(e, defs); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func describe(e types.Event, defs *state.Defs) string {
	switch e.Type {
	case "conversation_started":
		return fmt.Sprintf("You approach %s.", npcName(defs, str(e, "npc")))

	case "node_entered":
		text := str(e, "text")
		if text == "" {
			return ""
		}
		return fmt.Sprintf("%s: %s", str(e, "speaker"), text)

	case "conversation_ended":
		return "The conversation ends."

	case "quest_given":
		return fmt.Sprintf("Quest accepted: %s", questTitle(defs, str(e, "quest")))

	case "objective_completed":
		return fmt.Sprintf("Objective complete: %s",
			objectiveDescription(defs, str(e, "quest"), str(e, "objective")))

	case "quest_completed":
		return fmt.Sprintf("Quest complete: %s", questTitle(defs, str(e, "quest")))

	case "item_added":
		return fmt.Sprintf("Received: %s", itemCount(defs, str(e, "item"), e.Data["count"]))

	case "item_removed":
		return fmt.Sprintf("Handed over: %s", itemCount(defs, str(e, "item"), e.Data["count"]))

	case "npc_aggravated":
		return fmt.Sprintf("%s turns hostile!", npcName(defs, str(e, "npc")))
	}
	return ""
}

// Trace renders every event, including failures, for trace mode.
func Trace(e types.Event) string {
	switch e.Type {
	case "action_failed":
		return fmt.Sprintf("%s failed for %s: %s", str(e, "action"), str(e, "npc"), str(e, "reason"))
	case "node_entered":
		return fmt.Sprintf("%s node=%s", e.Type, str(e, "node"))
	}
	return fmt.Sprintf("%s %v", e.Type, e.Data)
}

func str(e types.Event, key string) string {
	s, _ := e.Data[key].(string)
	return s
}

func npcName(defs *state.Defs, id string) string {
	if n, ok := defs.NPCs[id]; ok && n.Name != "" {
		return n.Name
	}
	return id
}

func questTitle(defs *state.Defs, id string) string {
	if q, ok := defs.Quests[id]; ok && q.Title != "" {
		return q.Title
	}
	return id
}

func objectiveDescription(defs *state.Defs, quest, ref string) string {
	for _, obj := range defs.Quests[quest].Objectives {
		if obj.Reference == ref && obj.Description != "" {
			return obj.Description
		}
	}
	return ref
}

func itemCount(defs *state.Defs, id string, count any) string {
	name := id
	if it, ok := defs.Items[id]; ok && it.Name != "" {
		name = it.Name
	}
	if n, ok := count.(int); ok && n > 1 {
		return fmt.Sprintf("%s x%d", name, n)
	}
	return name
}
