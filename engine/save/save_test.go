package save

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title:   "Test Game",
			Version: "1.0",
		},
		NPCs: map[string]types.NPCDef{
			"smith": {ID: "smith", Name: "Smith", Dialogue: "smith_talk"},
		},
		Quests: map[string]types.QuestDef{
			"ore_run": {ID: "ore_run", Objectives: []types.ObjectiveDef{{Reference: "mine"}}},
		},
		Dialogues: map[string]types.GraphDef{
			"smith_talk": {ID: "smith_talk", Nodes: []types.NodeDef{
				{ID: "root", Text: "Hello.", ChildIDs: []types.NodeID{"ask"}},
				{ID: "ask", IsPlayerSpeech: true, Text: "Work?"},
			}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	defs := testDefs()
	s := state.NewState(defs)

	// Modify state.
	s.Player.Inventory["ore"] = 3
	s.Player.Quests = []types.QuestStatus{{Quest: "ore_run", Objectives: map[string]bool{"mine": true}}}
	s.Hostile["smith"] = true
	s.TurnCount = 7
	s.RNGSeed = 42
	s.RNGPosition = 5
	s.CommandLog = []string{"talk smith", "next"}

	// Save.
	data, err := Save(s, defs, &Cursor{NPC: "smith", Node: "root", Choosing: true})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load.
	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Apply to fresh state.
	s2 := state.NewState(defs)
	ApplySave(s2, sd)

	// Verify.
	if s2.Player.Inventory["ore"] != 3 {
		t.Errorf("expected 3 ore, got %d", s2.Player.Inventory["ore"])
	}
	if !state.CompletedObjective(s2, "ore_run", "mine") {
		t.Error("expected mine objective complete")
	}
	if !state.IsHostile(s2, "smith") {
		t.Error("expected smith hostile")
	}
	if s2.TurnCount != 7 {
		t.Errorf("expected turn 7, got %d", s2.TurnCount)
	}
	if s2.RNGSeed != 42 || s2.RNGPosition != 5 {
		t.Errorf("expected rng (42, 5), got (%d, %d)", s2.RNGSeed, s2.RNGPosition)
	}
	if len(s2.CommandLog) != 2 || s2.CommandLog[0] != "talk smith" || s2.CommandLog[1] != "next" {
		t.Errorf("command log mismatch: %v", s2.CommandLog)
	}

	if sd.Conversation == nil {
		t.Fatal("expected conversation cursor")
	}
	if *sd.Conversation != (Cursor{NPC: "smith", Node: "root", Choosing: true}) {
		t.Errorf("cursor mismatch: %+v", *sd.Conversation)
	}
	if err := sd.Check(defs); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestSave_ProducesValidJSON(t *testing.T) {
	defs := testDefs()
	s := state.NewState(defs)

	data, err := Save(s, defs, nil)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !json.Valid(data) {
		t.Fatal("Save output is not valid JSON")
	}

	// Verify game metadata.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["version"] != "1.0" {
		t.Errorf("expected version '1.0', got %v", raw["version"])
	}
	if raw["game"] != "Test Game" {
		t.Errorf("expected game 'Test Game', got %v", raw["game"])
	}
	if id, _ := raw["id"].(string); len(id) != 36 {
		t.Errorf("expected a uuid save id, got %v", raw["id"])
	}
	if _, ok := raw["conversation"]; ok {
		t.Error("idle saves should omit the conversation")
	}
}

func TestSave_UniqueIDs(t *testing.T) {
	defs := testDefs()
	s := state.NewState(defs)
	a, _ := Save(s, defs, nil)
	b, _ := Save(s, defs, nil)
	sa, _ := Load(a)
	sb, _ := Load(b)
	if sa.ID == sb.ID {
		t.Error("expected distinct save ids")
	}
}

func TestLoad_MissingOptionalFields(t *testing.T) {
	// Minimal JSON, only required fields.
	data := []byte(`{"version":"1.0","game":"Test","turn":0,"player":{"quests":[{"quest":"q"}]}}`)

	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sd.Hostile == nil {
		t.Error("expected non-nil hostile")
	}
	if sd.Player.Inventory == nil {
		t.Error("expected non-nil inventory")
	}
	if sd.Player.Quests[0].Objectives == nil {
		t.Error("expected non-nil objectives")
	}
	if sd.CommandLog == nil {
		t.Error("expected non-nil command_log")
	}
	if sd.Conversation != nil {
		t.Error("expected no conversation")
	}
}

func TestLoad_Garbage(t *testing.T) {
	if _, err := Load([]byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestCheck(t *testing.T) {
	defs := testDefs()
	tests := []struct {
		name    string
		sd      SaveData
		wantErr bool
	}{
		{"idle", SaveData{Game: "Test Game"}, false},
		{"valid cursor", SaveData{Game: "Test Game", Conversation: &Cursor{NPC: "smith", Node: "ask"}}, false},
		{"wrong game", SaveData{Game: "Other"}, true},
		{"unknown npc", SaveData{Game: "Test Game", Conversation: &Cursor{NPC: "ghost", Node: "root"}}, true},
		{"unknown node", SaveData{Game: "Test Game", Conversation: &Cursor{NPC: "smith", Node: "gone"}}, true},
	}
	for _, tt := range tests {
		err := tt.sd.Check(defs)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Check() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}

	err := (&SaveData{Game: "Other"}).Check(defs)
	if !errors.Is(err, ErrWrongGame) {
		t.Errorf("expected ErrWrongGame, got %v", err)
	}
}
