// Package types defines the shared data structures for the dialogue engine.
// This package contains only type definitions, no logic.
package types

// NodeID identifies a dialogue node. IDs are opaque and issued at authoring time.
type NodeID string

// PredicateType names a condition query answered by a predicate evaluator.
type PredicateType string

const (
	PredicateNone               PredicateType = "none"
	PredicateHasQuest           PredicateType = "has_quest"
	PredicateCompletedObjective PredicateType = "completed_objective"
	PredicateCompletedQuest     PredicateType = "completed_quest"
	PredicateHasItem            PredicateType = "has_item"
)

// Predicate is a single negatable query with free-form string parameters.
type Predicate struct {
	Type       PredicateType `json:"predicate" yaml:"predicate"`
	Negate     bool          `json:"negate,omitempty" yaml:"negate,omitempty"`
	Parameters []string      `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Disjunction is an OR-group of predicates.
type Disjunction struct {
	Or []Predicate `json:"or" yaml:"or"`
}

// Condition is an AND of disjunctions. The zero value always passes.
type Condition struct {
	And []Disjunction `json:"and,omitempty" yaml:"and,omitempty"`
}

// ActionType names a side effect fired when a node is visited.
type ActionType string

const (
	ActionNone              ActionType = "none"
	ActionAttack            ActionType = "attack"
	ActionGiveQuest         ActionType = "give_quest"
	ActionCompleteObjective ActionType = "complete_objective"
	ActionCompleteQuest     ActionType = "complete_quest"
	ActionEditInventory     ActionType = "edit_inventory"
)

// ActionData is one dialogue action with its optional parameter.
type ActionData struct {
	Action    ActionType `json:"action" yaml:"action"`
	Parameter string     `json:"parameter,omitempty" yaml:"parameter,omitempty"`
}

// NodeDef is the authored form of a single utterance.
type NodeDef struct {
	ID             NodeID       `json:"id" yaml:"id"`
	IsPlayerSpeech bool         `json:"is_player_speech,omitempty" yaml:"is_player_speech,omitempty"`
	Text           string       `json:"text" yaml:"text"`
	ChildIDs       []NodeID     `json:"children,omitempty" yaml:"children,omitempty"`
	Condition      Condition    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Actions        []ActionData `json:"actions,omitempty" yaml:"actions,omitempty"`
	ExitActions    []ActionData `json:"exit_actions,omitempty" yaml:"exit_actions,omitempty"` // legacy
}

// GraphDef is the authored form of a dialogue graph.
type GraphDef struct {
	ID    string    `json:"id" yaml:"id"`
	Root  NodeID    `json:"root,omitempty" yaml:"root,omitempty"`
	Nodes []NodeDef `json:"nodes" yaml:"nodes"`
}

// NPCDef describes a conversation partner.
type NPCDef struct {
	ID       string
	Name     string
	Dialogue string   // graph ID
	Quest    string   // quest handed out by GiveQuest/CompleteQuest actions
	Allies   []string // NPC IDs aggravated alongside this one
}

// QuestDef describes a quest and its objectives.
type QuestDef struct {
	ID          string
	Title       string
	Description string
	Objectives  []ObjectiveDef
}

// ObjectiveDef is a single step of a quest.
type ObjectiveDef struct {
	Reference   string
	Description string
}

// ItemDef describes an inventory item.
type ItemDef struct {
	ID          string
	Name        string
	Description string
}

// GameDef holds game metadata.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Player  string // player display name
	Intro   string
}

// QuestStatus is the runtime record of an accepted quest.
type QuestStatus struct {
	Quest      string          `json:"quest"`
	Objectives map[string]bool `json:"objectives"`
	Completed  bool            `json:"completed"`
}

// Player holds the player's runtime state.
type Player struct {
	Inventory map[string]int `json:"inventory"`
	Quests    []QuestStatus  `json:"quests"`
}

// State is the complete mutable game state.
type State struct {
	Player      Player
	Hostile     map[string]bool // NPC ID -> aggravated
	TurnCount   int
	RNGSeed     int64
	RNGPosition int64
	CommandLog  []string
}

// Intent is a parsed player command.
type Intent struct {
	Verb   string
	Object string
}

// Event is emitted when an action fires or the conversation changes.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single step.
type Result struct {
	Events []Event
	Output []string
}
