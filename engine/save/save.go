// Package save implements JSON serialization and deserialization of game
// state, including the position of an active conversation.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// ErrWrongGame is returned when a save belongs to a different game.
var ErrWrongGame = errors.New("save: saved game does not match loaded game")

// Cursor records where an active conversation stands.
type Cursor struct {
	NPC      string       `json:"npc"`
	Node     types.NodeID `json:"node"`
	Choosing bool         `json:"choosing"`
}

// SaveData is the JSON-serializable save format.
type SaveData struct {
	ID           string          `json:"id"`
	Version      string          `json:"version"`
	Game         string          `json:"game"`
	SavedAt      time.Time       `json:"saved_at"`
	Turn         int             `json:"turn"`
	Player       types.Player    `json:"player"`
	Hostile      map[string]bool `json:"hostile"`
	RNGSeed      int64           `json:"rng_seed"`
	RNGPosition  int64           `json:"rng_position"`
	CommandLog   []string        `json:"command_log"`
	Conversation *Cursor         `json:"conversation,omitempty"`
}

// Save serializes game state to JSON bytes. cur may be nil when no
// conversation is active.
func Save(s *types.State, defs *state.Defs, cur *Cursor) ([]byte, error) {
	data := SaveData{
		ID:           uuid.NewString(),
		Version:      defs.Game.Version,
		Game:         defs.Game.Title,
		SavedAt:      time.Now().UTC(),
		Turn:         s.TurnCount,
		Player:       s.Player,
		Hostile:      s.Hostile,
		RNGSeed:      s.RNGSeed,
		RNGPosition:  s.RNGPosition,
		CommandLog:   s.CommandLog,
		Conversation: cur,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("save: decode: %w", err)
	}
	// Ensure maps are never nil after load.
	if sd.Hostile == nil {
		sd.Hostile = map[string]bool{}
	}
	if sd.Player.Inventory == nil {
		sd.Player.Inventory = map[string]int{}
	}
	if sd.Player.Quests == nil {
		sd.Player.Quests = []types.QuestStatus{}
	}
	for i := range sd.Player.Quests {
		if sd.Player.Quests[i].Objectives == nil {
			sd.Player.Quests[i].Objectives = map[string]bool{}
		}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// Check verifies the save was made for the given game and that its
// conversation cursor still points at known content.
func (sd *SaveData) Check(defs *state.Defs) error {
	if sd.Game != defs.Game.Title {
		return fmt.Errorf("%w: save is for %q, loaded %q", ErrWrongGame, sd.Game, defs.Game.Title)
	}
	if sd.Conversation == nil {
		return nil
	}
	npc, ok := defs.NPCs[sd.Conversation.NPC]
	if !ok {
		return fmt.Errorf("save: conversation partner %q no longer exists", sd.Conversation.NPC)
	}
	graph, ok := defs.Dialogues[npc.Dialogue]
	if !ok {
		return fmt.Errorf("save: dialogue %q for %s no longer exists", npc.Dialogue, npc.ID)
	}
	for _, n := range graph.Nodes {
		if n.ID == sd.Conversation.Node {
			return nil
		}
	}
	return fmt.Errorf("save: node %q no longer exists in dialogue %q", sd.Conversation.Node, graph.ID)
}

// ApplySave applies loaded save data onto a state.
func ApplySave(s *types.State, sd *SaveData) {
	s.Player = sd.Player
	s.Hostile = sd.Hostile
	s.TurnCount = sd.Turn
	s.RNGSeed = sd.RNGSeed
	s.RNGPosition = sd.RNGPosition
	s.CommandLog = sd.CommandLog
}
