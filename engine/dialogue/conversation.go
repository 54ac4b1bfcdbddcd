package dialogue

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/JasFreaq/RPG-Project-sub000/engine/condition"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

var (
	// ErrNotActive is returned when an operation needs an active conversation.
	ErrNotActive = errors.New("dialogue: no active conversation")
	// ErrNotChoosing is returned by SelectChoice outside of a choice prompt.
	ErrNotChoosing = errors.New("dialogue: not awaiting a choice")
	// ErrChoiceOutOfRange is returned for a choice index outside the offered list.
	ErrChoiceOutOfRange = errors.New("dialogue: choice index out of range")
	// ErrNoDialogue is returned when a conversant has no dialogue graph.
	ErrNoDialogue = errors.New("dialogue: conversant has no dialogue")
)

// Conversant is the NPC side of a conversation.
type Conversant interface {
	ID() string
	Name() string
	Dialogue() *Graph
}

// ActionFirer executes dialogue actions on behalf of an NPC.
type ActionFirer interface {
	Fire(npcID string, actions []types.ActionData) []types.Event
}

// Rand picks AI branches. *rand.Rand and the engine RNG satisfy it.
type Rand interface {
	Intn(n int) int
}

// globalRand draws from the math/rand top-level source.
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// Conversation is the player's cursor through an NPC's dialogue graph.
//
// States: idle (no current node), presenting (current node shown) and
// choosing (current node shown, player replies offered).
type Conversation struct {
	// PlayerName is reported by SpeakerName for player lines.
	PlayerName string

	reg    *condition.Registry
	firer  ActionFirer
	rng    Rand
	logger *slog.Logger

	npc      Conversant
	graph    *Graph
	current  *Node
	choosing bool

	observers map[int]func()
	nextObsID int
	events    []types.Event
}

// NewConversation creates an idle conversation. firer may be nil when
// actions are not wanted. A nil rng draws from math/rand; a nil logger
// uses slog.Default().
func NewConversation(reg *condition.Registry, firer ActionFirer, rng Rand, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Conversation{
		PlayerName: "You",
		reg:        reg,
		firer:      firer,
		rng:        rng,
		logger:     logger,
		observers:  map[int]func(){},
	}
}

// Start begins a conversation with npc at the root of its graph. An active
// conversation is ended first, firing its exit actions.
func (c *Conversation) Start(npc Conversant) error {
	if npc == nil || npc.Dialogue() == nil {
		return ErrNoDialogue
	}
	if c.IsActive() {
		c.logger.Debug("restarting conversation", "from", c.npc.ID(), "to", npc.ID())
		c.end()
	}

	c.npc = npc
	c.graph = npc.Dialogue()
	c.emit("conversation_started", map[string]any{"npc": npc.ID(), "graph": c.graph.ID()})
	c.enter(c.graph.Root())
	c.notify()
	return nil
}

// Next advances the conversation by one step: it offers player replies when
// any are eligible, otherwise moves to a random eligible NPC line, otherwise
// ends the conversation.
func (c *Conversation) Next() error {
	if !c.IsActive() {
		return ErrNotActive
	}

	if len(c.PlayerChoices()) > 0 {
		c.choosing = true
		c.notify()
		return nil
	}
	c.choosing = false

	candidates := c.eligible(c.graph.Children(c.current))
	if len(candidates) == 0 {
		c.end()
		return nil
	}

	pick := candidates[0]
	if len(candidates) > 1 {
		pick = candidates[c.rng.Intn(len(candidates))]
	}
	c.leave()
	c.enter(pick)
	c.notify()
	return nil
}

// SelectChoice moves to the index-th offered player reply and advances once
// more so the NPC's answer is shown.
func (c *Conversation) SelectChoice(index int) error {
	if !c.IsActive() {
		return ErrNotActive
	}
	if !c.choosing {
		return ErrNotChoosing
	}
	choices := c.PlayerChoices()
	if index < 0 || index >= len(choices) {
		return fmt.Errorf("%w: %d of %d", ErrChoiceOutOfRange, index, len(choices))
	}

	c.leave()
	c.enter(choices[index])
	c.choosing = false
	return c.Next()
}

// Quit ends the conversation immediately. It is a no-op when idle.
func (c *Conversation) Quit() {
	if !c.IsActive() {
		return
	}
	c.end()
}

// Restore places the cursor without firing any actions. It is used when
// loading a saved game.
func (c *Conversation) Restore(npc Conversant, nodeID types.NodeID, choosing bool) error {
	if npc == nil || npc.Dialogue() == nil {
		return ErrNoDialogue
	}
	node := npc.Dialogue().Node(nodeID)
	if node == nil {
		return fmt.Errorf("dialogue: restore %s: node %s not found", npc.ID(), nodeID)
	}
	c.npc = npc
	c.graph = npc.Dialogue()
	c.current = node
	c.choosing = choosing && len(c.PlayerChoices()) > 0
	c.notify()
	return nil
}

// Reset returns to idle without firing exit actions or recording events.
// It is used before restoring a saved game.
func (c *Conversation) Reset() {
	if !c.IsActive() {
		return
	}
	c.clear()
	c.notify()
}

// IsActive reports whether a conversation is in progress.
func (c *Conversation) IsActive() bool { return c.current != nil }

// IsChoosing reports whether player replies are being offered.
func (c *Conversation) IsChoosing() bool { return c.choosing }

// Current returns the node being shown, or nil when idle.
func (c *Conversation) Current() *Node { return c.current }

// NPC returns the conversation partner, or nil when idle.
func (c *Conversation) NPC() Conversant { return c.npc }

// Text returns the current line, or "" when idle.
func (c *Conversation) Text() string {
	if c.current == nil {
		return ""
	}
	return c.current.Text()
}

// IsPlayerSpeaking reports whether the current line is the player's.
func (c *Conversation) IsPlayerSpeaking() bool {
	return c.current != nil && c.current.IsPlayerSpeech()
}

// SpeakerName returns who says the current line.
func (c *Conversation) SpeakerName() string {
	switch {
	case c.current == nil:
		return ""
	case c.current.IsPlayerSpeech():
		return c.PlayerName
	default:
		return c.npc.Name()
	}
}

// PlayerChoices returns the eligible player replies to the current node, in
// authored order.
func (c *Conversation) PlayerChoices() []*Node {
	if c.current == nil {
		return nil
	}
	return c.eligible(c.graph.PlayerChildren(c.current))
}

// HasNext reports whether the current node has any children at all,
// ignoring conditions.
func (c *Conversation) HasNext() bool {
	return c.current != nil && len(c.current.ChildIDs()) > 0
}

// OnUpdated registers fn to be called after every state change and returns
// an id for RemoveOnUpdated.
func (c *Conversation) OnUpdated(fn func()) int {
	c.nextObsID++
	c.observers[c.nextObsID] = fn
	return c.nextObsID
}

// RemoveOnUpdated deregisters an observer.
func (c *Conversation) RemoveOnUpdated(id int) {
	delete(c.observers, id)
}

// TakeEvents returns the events recorded since the last call and clears them.
func (c *Conversation) TakeEvents() []types.Event {
	evts := c.events
	c.events = nil
	return evts
}

func (c *Conversation) eligible(nodes []*Node) []*Node {
	var result []*Node
	for _, n := range nodes {
		if n.EvaluateCondition(c.reg) {
			result = append(result, n)
		}
	}
	return result
}

func (c *Conversation) enter(n *Node) {
	c.current = n
	c.emit("node_entered", map[string]any{
		"node":    string(n.ID()),
		"speaker": c.SpeakerName(),
		"text":    n.Text(),
		"player":  n.IsPlayerSpeech(),
	})
	c.fire(n.Actions())
}

// leave fires the current node's exit actions.
func (c *Conversation) leave() {
	if c.current != nil {
		c.fire(c.current.ExitActions())
	}
}

func (c *Conversation) end() {
	npcID := c.npc.ID()
	c.leave()
	c.clear()
	c.emit("conversation_ended", map[string]any{"npc": npcID})
	c.notify()
}

func (c *Conversation) clear() {
	c.current = nil
	c.graph = nil
	c.npc = nil
	c.choosing = false
}

func (c *Conversation) fire(actions []types.ActionData) {
	if len(actions) == 0 || c.firer == nil {
		return
	}
	c.events = append(c.events, c.firer.Fire(c.npc.ID(), actions)...)
}

func (c *Conversation) emit(typ string, data map[string]any) {
	c.events = append(c.events, types.Event{Type: typ, Data: data})
}

func (c *Conversation) notify() {
	for id := 1; id <= c.nextObsID; id++ {
		if fn, ok := c.observers[id]; ok {
			fn()
		}
	}
}
