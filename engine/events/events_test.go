package events

import (
	"strings"
	"testing"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		NPCs: map[string]types.NPCDef{
			"smith": {ID: "smith", Name: "Bram the Smith"},
		},
		Quests: map[string]types.QuestDef{
			"ore_run": {
				ID:    "ore_run",
				Title: "Ore Run",
				Objectives: []types.ObjectiveDef{
					{Reference: "mine", Description: "Mine some ore"},
				},
			},
		},
		Items: map[string]types.ItemDef{
			"ore": {ID: "ore", Name: "Iron Ore"},
		},
	}
}

func TestDescribe(t *testing.T) {
	defs := testDefs()
	tests := []struct {
		name  string
		event types.Event
		want  string
	}{
		{"started", types.Event{Type: "conversation_started", Data: map[string]any{"npc": "smith"}}, "You approach Bram the Smith."},
		{"line", types.Event{Type: "node_entered", Data: map[string]any{"speaker": "Bram the Smith", "text": "Need ore."}}, "Bram the Smith: Need ore."},
		{"ended", types.Event{Type: "conversation_ended", Data: map[string]any{"npc": "smith"}}, "The conversation ends."},
		{"quest given", types.Event{Type: "quest_given", Data: map[string]any{"quest": "ore_run"}}, "Quest accepted: Ore Run"},
		{"objective", types.Event{Type: "objective_completed", Data: map[string]any{"quest": "ore_run", "objective": "mine"}}, "Objective complete: Mine some ore"},
		{"quest done", types.Event{Type: "quest_completed", Data: map[string]any{"quest": "ore_run"}}, "Quest complete: Ore Run"},
		{"one item", types.Event{Type: "item_added", Data: map[string]any{"item": "ore", "count": 1}}, "Received: Iron Ore"},
		{"many items", types.Event{Type: "item_added", Data: map[string]any{"item": "ore", "count": 3}}, "Received: Iron Ore x3"},
		{"removed", types.Event{Type: "item_removed", Data: map[string]any{"item": "ore", "count": 2}}, "Handed over: Iron Ore x2"},
		{"hostile", types.Event{Type: "npc_aggravated", Data: map[string]any{"npc": "smith"}}, "Bram the Smith turns hostile!"},
		{"unknown ids fall back", types.Event{Type: "quest_given", Data: map[string]any{"quest": "mystery"}}, "Quest accepted: mystery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe([]types.Event{tt.event}, defs)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe_Silent(t *testing.T) {
	defs := testDefs()
	evts := []types.Event{
		{Type: "action_failed", Data: map[string]any{"reason": "no quest log"}},
		{Type: "node_entered", Data: map[string]any{"speaker": "Bram", "text": ""}},
		{Type: "something_else"},
	}
	if got := Describe(evts, defs); len(got) != 0 {
		t.Errorf("expected no output, got %q", got)
	}
}

func TestDescribe_KeepsOrder(t *testing.T) {
	defs := testDefs()
	evts := []types.Event{
		{Type: "node_entered", Data: map[string]any{"speaker": "Bram the Smith", "text": "Take this."}},
		{Type: "item_added", Data: map[string]any{"item": "ore", "count": 1}},
		{Type: "conversation_ended"},
	}
	got := Describe(evts, defs)
	want := []string{"Bram the Smith: Take this.", "Received: Iron Ore", "The conversation ends."}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTrace(t *testing.T) {
	fail := types.Event{Type: "action_failed", Data: map[string]any{"npc": "smith", "action": "give_quest", "reason": "no quest log"}}
	if got := Trace(fail); got != "give_quest failed for smith: no quest log" {
		t.Errorf("Trace(fail) = %q", got)
	}
	node := types.Event{Type: "node_entered", Data: map[string]any{"node": "root"}}
	if got := Trace(node); got != "node_entered node=root" {
		t.Errorf("Trace(node) = %q", got)
	}
	other := types.Event{Type: "quest_given", Data: map[string]any{"quest": "ore_run"}}
	if got := Trace(other); !strings.HasPrefix(got, "quest_given ") {
		t.Errorf("Trace(other) = %q", got)
	}
}
