// Package actions routes fired dialogue actions to the quest, inventory and
// combat systems. Failures are logged and reported as events; they never stop
// a conversation.
package actions

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// QuestLog is the quest system as seen by dialogue actions.
type QuestLog interface {
	GiveQuest(quest string) error
	CompleteObjective(quest, objective string) error
	CompleteQuest(quest string) error
}

// Inventory is the inventory system as seen by dialogue actions.
type Inventory interface {
	AddItem(item string, count int) error
	RemoveItem(item string, count int) error
}

// Combat is the AI/combat system as seen by dialogue actions.
type Combat interface {
	Aggravate(npcID string) error
}

// Dispatcher maps actions to collaborator calls. Any collaborator may be nil;
// actions needing a missing collaborator are logged and skipped.
type Dispatcher struct {
	Quests    QuestLog
	Inventory Inventory
	Combat    Combat
	NPCs      map[string]types.NPCDef
	Logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given NPC definitions.
func NewDispatcher(npcs map[string]types.NPCDef, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{NPCs: npcs, Logger: logger}
}

// Fire dispatches actions in order and returns the events produced.
func (d *Dispatcher) Fire(npcID string, actions []types.ActionData) []types.Event {
	var events []types.Event
	for _, a := range actions {
		events = append(events, d.Dispatch(npcID, a)...)
	}
	return events
}

// Dispatch executes a single action for the given NPC.
func (d *Dispatcher) Dispatch(npcID string, a types.ActionData) []types.Event {
	switch a.Action {
	case types.ActionNone, "":
		return nil

	case types.ActionGiveQuest:
		quest := d.questFor(npcID, a.Parameter)
		if quest == "" {
			return d.fail(npcID, a, "no quest configured")
		}
		if d.Quests == nil {
			return d.fail(npcID, a, "no quest log")
		}
		if err := d.Quests.GiveQuest(quest); err != nil {
			return d.fail(npcID, a, err.Error())
		}
		return []types.Event{{Type: "quest_given", Data: map[string]any{"npc": npcID, "quest": quest}}}

	case types.ActionCompleteObjective:
		if a.Parameter == "" {
			return d.fail(npcID, a, "objective reference required")
		}
		quest, objective := d.splitObjective(npcID, a.Parameter)
		if quest == "" {
			return d.fail(npcID, a, "no quest configured")
		}
		if d.Quests == nil {
			return d.fail(npcID, a, "no quest log")
		}
		if err := d.Quests.CompleteObjective(quest, objective); err != nil {
			return d.fail(npcID, a, err.Error())
		}
		return []types.Event{{Type: "objective_completed", Data: map[string]any{"npc": npcID, "quest": quest, "objective": objective}}}

	case types.ActionCompleteQuest:
		quest := d.questFor(npcID, a.Parameter)
		if quest == "" {
			return d.fail(npcID, a, "no quest configured")
		}
		if d.Quests == nil {
			return d.fail(npcID, a, "no quest log")
		}
		if err := d.Quests.CompleteQuest(quest); err != nil {
			return d.fail(npcID, a, err.Error())
		}
		return []types.Event{{Type: "quest_completed", Data: map[string]any{"npc": npcID, "quest": quest}}}

	case types.ActionEditInventory:
		if a.Parameter == "" {
			return d.fail(npcID, a, "item parameter required")
		}
		edit, err := ParseInventoryEdit(a.Parameter)
		if err != nil {
			return d.fail(npcID, a, err.Error())
		}
		if d.Inventory == nil {
			return d.fail(npcID, a, "no inventory")
		}
		if edit.Remove {
			err = d.Inventory.RemoveItem(edit.Item, edit.Count)
		} else {
			err = d.Inventory.AddItem(edit.Item, edit.Count)
		}
		if err != nil {
			return d.fail(npcID, a, err.Error())
		}
		typ := "item_added"
		if edit.Remove {
			typ = "item_removed"
		}
		return []types.Event{{Type: typ, Data: map[string]any{"npc": npcID, "item": edit.Item, "count": edit.Count}}}

	case types.ActionAttack:
		if d.Combat == nil {
			return d.fail(npcID, a, "no combat system")
		}
		var events []types.Event
		targets := append([]string{npcID}, d.NPCs[npcID].Allies...)
		for _, id := range targets {
			if err := d.Combat.Aggravate(id); err != nil {
				events = append(events, d.fail(id, a, err.Error())...)
				continue
			}
			events = append(events, types.Event{Type: "npc_aggravated", Data: map[string]any{"npc": id, "source": npcID}})
		}
		return events

	default:
		return d.fail(npcID, a, "unknown action")
	}
}

// questFor returns the explicit quest parameter, or the NPC's configured quest.
func (d *Dispatcher) questFor(npcID, param string) string {
	if param != "" {
		return param
	}
	return d.NPCs[npcID].Quest
}

// splitObjective parses "objective" or "quest:objective".
func (d *Dispatcher) splitObjective(npcID, param string) (quest, objective string) {
	if i := strings.Index(param, ":"); i >= 0 {
		return param[:i], param[i+1:]
	}
	return d.NPCs[npcID].Quest, param
}

func (d *Dispatcher) fail(npcID string, a types.ActionData, reason string) []types.Event {
	d.Logger.Warn("dialogue action failed",
		"npc", npcID, "action", string(a.Action), "parameter", a.Parameter, "reason", reason)
	return []types.Event{{
		Type: "action_failed",
		Data: map[string]any{"npc": npcID, "action": string(a.Action), "reason": reason},
	}}
}

// InventoryEdit is a parsed EditInventory parameter.
type InventoryEdit struct {
	Item   string
	Count  int
	Remove bool
}

// ParseInventoryEdit parses "[-]item[:count]". Count defaults to 1.
func ParseInventoryEdit(param string) (InventoryEdit, error) {
	edit := InventoryEdit{Count: 1}
	s := strings.TrimSpace(param)
	if strings.HasPrefix(s, "-") {
		edit.Remove = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil || n <= 0 {
			return InventoryEdit{}, fmt.Errorf("invalid item count in %q", param)
		}
		edit.Count = n
		s = s[:i]
	}
	edit.Item = strings.TrimSpace(s)
	if edit.Item == "" {
		return InventoryEdit{}, fmt.Errorf("missing item in %q", param)
	}
	return edit, nil
}

// RequiresParameter reports whether an action is meaningless without a parameter.
func RequiresParameter(a types.ActionType) bool {
	return a == types.ActionCompleteObjective || a == types.ActionEditInventory
}
