// Package engine provides the Step() orchestrator that wires together
// parsing, name resolution, the conversation cursor, action dispatch and
// event narration into a single turn.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/engine/actions"
	"github.com/JasFreaq/RPG-Project-sub000/engine/condition"
	"github.com/JasFreaq/RPG-Project-sub000/engine/dialogue"
	"github.com/JasFreaq/RPG-Project-sub000/engine/events"
	"github.com/JasFreaq/RPG-Project-sub000/engine/parser"
	"github.com/JasFreaq/RPG-Project-sub000/engine/resolve"
	"github.com/JasFreaq/RPG-Project-sub000/engine/save"
	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// Engine holds the game definitions, mutable state and the conversation
// cursor.
type Engine struct {
	Defs         *state.Defs
	State        *types.State
	World        *state.World
	Registry     *condition.Registry
	Dispatcher   *actions.Dispatcher
	Conversation *dialogue.Conversation
	Graphs       map[string]*dialogue.Graph
	RNG          *RNG
	Logger       *slog.Logger
}

// New creates an engine from definitions. Every dialogue graph is built up
// front; a malformed graph is an error. A nil logger uses slog.Default().
func New(defs *state.Defs, seed int64, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	graphs := make(map[string]*dialogue.Graph, len(defs.Dialogues))
	for id, def := range defs.Dialogues {
		g, err := dialogue.NewGraph(def)
		if err != nil {
			return nil, fmt.Errorf("engine: dialogue %s: %w", id, err)
		}
		graphs[id] = g
	}

	s := state.NewState(defs)
	s.RNGSeed = seed
	w := state.NewWorld(defs, s)

	reg := condition.NewRegistry(logger)
	if err := w.RegisterEvaluators(reg); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	disp := actions.NewDispatcher(defs.NPCs, logger)
	disp.Quests = w
	disp.Inventory = w
	disp.Combat = w

	e := &Engine{
		Defs:       defs,
		State:      s,
		World:      w,
		Registry:   reg,
		Dispatcher: disp,
		Graphs:     graphs,
		RNG:        NewRNG(seed),
		Logger:     logger,
	}
	e.Conversation = dialogue.NewConversation(reg, disp, engineRand{e}, logger)
	if defs.Game.Player != "" {
		e.Conversation.PlayerName = defs.Game.Player
	}
	return e, nil
}

// engineRand draws from whatever RNG the engine currently holds, so a
// restored RNG takes effect without rebuilding the conversation.
type engineRand struct{ e *Engine }

func (r engineRand) Intn(n int) int { return r.e.RNG.Intn(n) }

// npc adapts an NPC definition to dialogue.Conversant.
type npc struct {
	def   types.NPCDef
	graph *dialogue.Graph
}

func (n npc) ID() string { return n.def.ID }

func (n npc) Name() string {
	if n.def.Name == "" {
		return n.def.ID
	}
	return n.def.Name
}

func (n npc) Dialogue() *dialogue.Graph { return n.graph }

// NPC returns the conversant for an NPC ID.
func (e *Engine) NPC(id string) (dialogue.Conversant, bool) {
	def, ok := e.Defs.NPCs[id]
	if !ok {
		return nil, false
	}
	return npc{def: def, graph: e.Graphs[def.Dialogue]}, true
}

// RestoreRNG re-creates the RNG from seed and advances to the saved position.
func (e *Engine) RestoreRNG(seed int64, position int64) {
	e.RNG = RestoreRNG(seed, position)
}

// Cursor returns the position of the active conversation, or nil.
func (e *Engine) Cursor() *save.Cursor {
	c := e.Conversation
	if !c.IsActive() {
		return nil
	}
	return &save.Cursor{NPC: c.NPC().ID(), Node: c.Current().ID(), Choosing: c.IsChoosing()}
}

// Snapshot serializes the game, including an active conversation.
func (e *Engine) Snapshot() ([]byte, error) {
	e.State.RNGPosition = e.RNG.Position()
	return save.Save(e.State, e.Defs, e.Cursor())
}

// Restore applies a loaded save. The conversation is placed back at the
// saved node without firing any actions.
func (e *Engine) Restore(sd *save.SaveData) error {
	if err := sd.Check(e.Defs); err != nil {
		return err
	}
	e.Conversation.Reset()
	e.Conversation.TakeEvents()
	save.ApplySave(e.State, sd)
	e.RestoreRNG(sd.RNGSeed, sd.RNGPosition)

	if cur := sd.Conversation; cur != nil {
		who, _ := e.NPC(cur.NPC)
		if err := e.Conversation.Restore(who, cur.Node, cur.Choosing); err != nil {
			return fmt.Errorf("engine: restore conversation: %w", err)
		}
	}
	e.Logger.Debug("game restored", "turn", sd.Turn, "conversation", sd.Conversation != nil)
	return nil
}

// Intro returns the opening lines for a new game.
func (e *Engine) Intro() []string {
	var out []string
	if e.Defs.Game.Intro != "" {
		out = append(out, e.Defs.Game.Intro)
	}
	return append(out, e.look()...)
}

// Recap describes where the player stands: the current line and any
// offered replies during a conversation, otherwise who is around.
func (e *Engine) Recap() []string {
	c := e.Conversation
	if !c.IsActive() {
		return e.look()
	}
	var out []string
	if c.Text() != "" {
		out = append(out, fmt.Sprintf("%s: %s", c.SpeakerName(), c.Text()))
	}
	if c.IsChoosing() {
		out = append(out, e.choiceLines()...)
	}
	return out
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	// 1. Parse input.
	intent := parser.Parse(input)

	// 2. Log the command.
	e.State.CommandLog = append(e.State.CommandLog, input)

	// 3. Empty input advances an active conversation.
	if intent.Verb == "" {
		if !e.Conversation.IsActive() {
			result.Output = append(result.Output, "What do you want to do?")
			return result
		}
		intent.Verb = "next"
	}

	// 4. Dispatch by verb.
	var out []string
	switch intent.Verb {
	case "talk":
		out = e.talk(intent.Object)
	case "next":
		out = e.next()
	case "choose":
		out = e.choose(intent.Object)
	case "bye":
		out = e.bye()
	case "look":
		out = e.look()
	case "inventory":
		out = e.inventory()
	case "quests":
		out = e.quests()
	case "help":
		out = helpText
	default:
		out = []string{"I don't understand that. Type 'help' for a list of commands."}
	}
	result.Output = append(result.Output, out...)

	// 5. Narrate what happened in the conversation and the world.
	evts := e.Conversation.TakeEvents()
	result.Events = append(result.Events, evts...)
	result.Output = append(result.Output, events.Describe(evts, e.Defs)...)

	// 6. Offer replies when the player has to choose.
	if e.Conversation.IsChoosing() {
		result.Output = append(result.Output, e.choiceLines()...)
	}

	// 7. Track RNG position for save/load.
	e.State.RNGPosition = e.RNG.Position()

	// 8. Increment turn count.
	e.State.TurnCount++

	return result
}

var helpText = []string{
	"Commands:",
	"  talk <name>    start a conversation",
	"  next           continue the conversation (or just press enter)",
	"  <number>       pick a reply",
	"  bye            end the conversation",
	"  look           see who is around",
	"  inventory      list what you carry",
	"  quests         show your quest log",
}

func (e *Engine) talk(name string) []string {
	if name == "" {
		return []string{"Talk to whom?"}
	}
	id, err := resolve.NPC(e.Defs, name)
	if err != nil {
		return []string{capitalize(err.Error())}
	}
	who, _ := e.NPC(id)
	if state.IsHostile(e.State, id) {
		return []string{fmt.Sprintf("%s refuses to speak with you.", who.Name())}
	}
	if err := e.Conversation.Start(who); err != nil {
		if !errors.Is(err, dialogue.ErrNoDialogue) {
			e.Logger.Error("failed to start conversation", "npc", id, "error", err)
		}
		return []string{fmt.Sprintf("%s has nothing to say.", who.Name())}
	}
	return nil
}

func (e *Engine) next() []string {
	if err := e.Conversation.Next(); err != nil {
		return []string{"You're not talking to anyone."}
	}
	return nil
}

func (e *Engine) choose(arg string) []string {
	c := e.Conversation
	if !c.IsActive() {
		return []string{"You're not talking to anyone."}
	}
	if !c.IsChoosing() {
		return []string{"There's nothing to choose right now."}
	}
	n := len(c.PlayerChoices())
	i, err := strconv.Atoi(arg)
	if err != nil {
		return []string{fmt.Sprintf("Choose a number between 1 and %d.", n)}
	}
	if err := c.SelectChoice(i - 1); err != nil {
		return []string{fmt.Sprintf("Choose a number between 1 and %d.", n)}
	}
	return nil
}

func (e *Engine) bye() []string {
	if !e.Conversation.IsActive() {
		return []string{"You're not talking to anyone."}
	}
	e.Conversation.Quit()
	return nil
}

func (e *Engine) choiceLines() []string {
	choices := e.Conversation.PlayerChoices()
	out := make([]string, 0, len(choices))
	for i, n := range choices {
		out = append(out, fmt.Sprintf("  %d. %s", i+1, n.Text()))
	}
	return out
}

func (e *Engine) look() []string {
	if len(e.Defs.NPCs) == 0 {
		return []string{"There is nobody here."}
	}
	ids := make([]string, 0, len(e.Defs.NPCs))
	for id := range e.Defs.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic order

	var names []string
	for _, id := range ids {
		who, _ := e.NPC(id)
		name := who.Name()
		if state.IsHostile(e.State, id) {
			name += " (hostile)"
		}
		names = append(names, name)
	}
	return []string{"You see: " + strings.Join(names, ", ") + "."}
}

func (e *Engine) inventory() []string {
	inv := e.State.Player.Inventory
	if len(inv) == 0 {
		return []string{"You are carrying nothing."}
	}
	ids := make([]string, 0, len(inv))
	for id := range inv {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var names []string
	for _, id := range ids {
		name := e.itemName(id)
		if n := inv[id]; n > 1 {
			name = fmt.Sprintf("%s x%d", name, n)
		}
		names = append(names, name)
	}
	return []string{"You are carrying: " + strings.Join(names, ", ") + "."}
}

func (e *Engine) quests() []string {
	if len(e.State.Player.Quests) == 0 {
		return []string{"Your quest log is empty."}
	}
	var out []string
	for _, qs := range e.State.Player.Quests {
		def := e.Defs.Quests[qs.Quest]
		title := def.Title
		if title == "" {
			title = qs.Quest
		}
		status := "in progress"
		if state.CompletedQuest(e.State, e.Defs, qs.Quest) {
			status = "complete"
		}
		out = append(out, fmt.Sprintf("%s (%s)", title, status))
		for _, obj := range def.Objectives {
			mark := " "
			if qs.Objectives[obj.Reference] {
				mark = "x"
			}
			desc := obj.Description
			if desc == "" {
				desc = obj.Reference
			}
			out = append(out, fmt.Sprintf("  [%s] %s", mark, desc))
		}
	}
	return out
}

// itemName returns the display name of an item.
func (e *Engine) itemName(id string) string {
	if it, ok := e.Defs.Items[id]; ok && it.Name != "" {
		return it.Name
	}
	return id
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
