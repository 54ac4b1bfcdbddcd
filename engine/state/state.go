// Package state manages the mutable world the dialogue engine talks to: the
// player's quest log, inventory, and NPC hostility. It provides the quest,
// inventory and combat collaborators for dialogue actions and answers their
// predicate queries.
package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/engine/condition"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

var (
	// ErrUnknownQuest is returned for quests missing from the definitions.
	ErrUnknownQuest = errors.New("state: unknown quest")
	// ErrQuestNotTaken is returned when progressing a quest the player does not have.
	ErrQuestNotTaken = errors.New("state: quest not in quest log")
	// ErrUnknownObjective is returned for objectives the quest does not define.
	ErrUnknownObjective = errors.New("state: unknown objective")
	// ErrNotEnoughItems is returned when removing more items than are carried.
	ErrNotEnoughItems = errors.New("state: not enough items")
	// ErrUnknownNPC is returned when aggravating an NPC missing from the definitions.
	ErrUnknownNPC = errors.New("state: unknown npc")
)

// Defs holds the immutable game definitions.
type Defs struct {
	Game      types.GameDef
	NPCs      map[string]types.NPCDef
	Quests    map[string]types.QuestDef
	Items     map[string]types.ItemDef
	Dialogues map[string]types.GraphDef
}

// NewState creates a fresh game state.
func NewState(defs *Defs) *types.State {
	return &types.State{
		Player: types.Player{
			Inventory: map[string]int{},
			Quests:    []types.QuestStatus{},
		},
		Hostile:    map[string]bool{},
		CommandLog: []string{},
	}
}

// ItemCount returns how many of an item the player carries.
func ItemCount(s *types.State, item string) int {
	return s.Player.Inventory[item]
}

// HasItem returns true if the player carries at least one of the item.
func HasItem(s *types.State, item string) bool {
	return ItemCount(s, item) > 0
}

// QuestStatus returns the player's record for a quest, or nil.
func QuestStatus(s *types.State, quest string) *types.QuestStatus {
	for i := range s.Player.Quests {
		if s.Player.Quests[i].Quest == quest {
			return &s.Player.Quests[i]
		}
	}
	return nil
}

// HasQuest returns true if the quest is in the player's quest log.
func HasQuest(s *types.State, quest string) bool {
	return QuestStatus(s, quest) != nil
}

// CompletedObjective returns true if the objective of a taken quest is done.
func CompletedObjective(s *types.State, quest, objective string) bool {
	qs := QuestStatus(s, quest)
	return qs != nil && qs.Objectives[objective]
}

// CompletedQuest returns true if the quest was completed, either explicitly
// or by finishing every objective.
func CompletedQuest(s *types.State, defs *Defs, quest string) bool {
	qs := QuestStatus(s, quest)
	if qs == nil {
		return false
	}
	if qs.Completed {
		return true
	}
	def, ok := defs.Quests[quest]
	if !ok || len(def.Objectives) == 0 {
		return false
	}
	for _, obj := range def.Objectives {
		if !qs.Objectives[obj.Reference] {
			return false
		}
	}
	return true
}

// IsHostile returns true if the NPC has been aggravated.
func IsHostile(s *types.State, npc string) bool {
	return s.Hostile[npc]
}

// World binds definitions to a state and acts on it.
type World struct {
	Defs  *Defs
	State *types.State
}

// NewWorld creates a world over existing definitions and state.
func NewWorld(defs *Defs, s *types.State) *World {
	return &World{Defs: defs, State: s}
}

// GiveQuest adds a quest to the player's log. Taking a quest twice is a no-op.
func (w *World) GiveQuest(quest string) error {
	if _, ok := w.Defs.Quests[quest]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuest, quest)
	}
	if HasQuest(w.State, quest) {
		return nil
	}
	w.State.Player.Quests = append(w.State.Player.Quests, types.QuestStatus{
		Quest:      quest,
		Objectives: map[string]bool{},
	})
	return nil
}

// CompleteObjective marks an objective of a taken quest as done.
func (w *World) CompleteObjective(quest, objective string) error {
	def, ok := w.Defs.Quests[quest]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuest, quest)
	}
	if !HasObjective(def, objective) {
		return fmt.Errorf("%w: %s in %s", ErrUnknownObjective, objective, quest)
	}
	qs := QuestStatus(w.State, quest)
	if qs == nil {
		return fmt.Errorf("%w: %s", ErrQuestNotTaken, quest)
	}
	if qs.Objectives == nil {
		qs.Objectives = map[string]bool{}
	}
	qs.Objectives[objective] = true
	return nil
}

// CompleteQuest marks a taken quest and all its objectives as done.
func (w *World) CompleteQuest(quest string) error {
	def, ok := w.Defs.Quests[quest]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuest, quest)
	}
	qs := QuestStatus(w.State, quest)
	if qs == nil {
		return fmt.Errorf("%w: %s", ErrQuestNotTaken, quest)
	}
	if qs.Objectives == nil {
		qs.Objectives = map[string]bool{}
	}
	for _, obj := range def.Objectives {
		qs.Objectives[obj.Reference] = true
	}
	qs.Completed = true
	return nil
}

// AddItem puts count items in the player's inventory.
func (w *World) AddItem(item string, count int) error {
	if count <= 0 {
		return fmt.Errorf("state: invalid count %d for %s", count, item)
	}
	w.State.Player.Inventory[item] += count
	return nil
}

// RemoveItem takes count items out of the player's inventory.
func (w *World) RemoveItem(item string, count int) error {
	have := w.State.Player.Inventory[item]
	if count <= 0 || have < count {
		return fmt.Errorf("%w: have %d %s, need %d", ErrNotEnoughItems, have, item, count)
	}
	if have == count {
		delete(w.State.Player.Inventory, item)
		return nil
	}
	w.State.Player.Inventory[item] = have - count
	return nil
}

// Aggravate turns an NPC hostile.
func (w *World) Aggravate(npc string) error {
	if _, ok := w.Defs.NPCs[npc]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, npc)
	}
	w.State.Hostile[npc] = true
	return nil
}

// QuestPredicates answers quest queries against a world.
type QuestPredicates struct{ W *World }

// CheckCondition implements condition.Evaluator.
func (q QuestPredicates) CheckCondition(p types.PredicateType, params []string) (bool, bool) {
	switch p {
	case types.PredicateHasQuest:
		return len(params) > 0 && HasQuest(q.W.State, params[0]), true
	case types.PredicateCompletedQuest:
		return len(params) > 0 && CompletedQuest(q.W.State, q.W.Defs, params[0]), true
	case types.PredicateCompletedObjective:
		quest, objective := ObjectiveParams(params)
		return quest != "" && CompletedObjective(q.W.State, quest, objective), true
	default:
		return false, false
	}
}

// InventoryPredicates answers inventory queries against a world.
// Parameters: item [, minimum count].
type InventoryPredicates struct{ W *World }

// CheckCondition implements condition.Evaluator.
func (i InventoryPredicates) CheckCondition(p types.PredicateType, params []string) (bool, bool) {
	if p != types.PredicateHasItem {
		return false, false
	}
	if len(params) == 0 {
		return false, true
	}
	need := 1
	if len(params) > 1 {
		if n, err := strconv.Atoi(params[1]); err == nil && n > 0 {
			need = n
		}
	}
	return ItemCount(i.W.State, params[0]) >= need, true
}

// RegisterEvaluators makes the world's quest log and inventory the owners of
// their predicate types.
func (w *World) RegisterEvaluators(reg *condition.Registry) error {
	err := reg.Register(QuestPredicates{W: w},
		types.PredicateHasQuest, types.PredicateCompletedObjective, types.PredicateCompletedQuest)
	if err != nil {
		return err
	}
	return reg.Register(InventoryPredicates{W: w}, types.PredicateHasItem)
}

// ObjectiveParams splits completed_objective parameters, given as
// [quest, objective] or ["quest:objective"].
func ObjectiveParams(params []string) (quest, objective string) {
	switch {
	case len(params) >= 2:
		return params[0], params[1]
	case len(params) == 1:
		if i := strings.Index(params[0], ":"); i >= 0 {
			return params[0][:i], params[0][i+1:]
		}
	}
	return "", ""
}

// HasObjective reports whether a quest defines the objective.
func HasObjective(def types.QuestDef, ref string) bool {
	for _, obj := range def.Objectives {
		if obj.Reference == ref {
			return true
		}
	}
	return false
}
