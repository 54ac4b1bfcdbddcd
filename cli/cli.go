// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the dialogue engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/engine"
	"github.com/JasFreaq/RPG-Project-sub000/engine/events"
	"github.com/JasFreaq/RPG-Project-sub000/engine/save"
	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// DefaultSlot is used by /save and /load without an argument.
const DefaultSlot = "quicksave"

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	Store     save.Store
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again" repeat
}

// New creates a CLI wired to the given engine and save store.
func New(eng *engine.Engine, defs *state.Defs, store save.Store) *CLI {
	return &CLI{
		Engine: eng,
		Defs:   defs,
		In:     os.Stdin,
		Out:    os.Stdout,
		Store:  store,
	}
}

// Run starts the game loop. It shows the intro and who is around, then
// loops: prompt, input, dispatch, output.
func (c *CLI) Run() {
	for _, line := range c.Engine.Intro() {
		c.printLine(line)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print(c.prompt())
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		// Enter continues a conversation; otherwise blank lines are skipped.
		if input == "" && !c.Engine.Conversation.IsActive() {
			continue
		}
		if isComment(input) {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" repeats the last game command.
		if strings.EqualFold(input, "again") {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if input != "" {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// isComment reports whether a script line is a comment. "#2" picks a reply
// and is not a comment.
func isComment(input string) bool {
	if !strings.HasPrefix(input, "#") {
		return false
	}
	return len(input) == 1 || input[1] < '0' || input[1] > '9'
}

// prompt reflects the conversation: a reply to pick, more to hear, or a
// last line before it ends.
func (c *CLI) prompt() string {
	switch {
	case c.Engine.Conversation.IsChoosing():
		return "choose> "
	case c.Engine.Conversation.IsActive() && !c.Engine.Conversation.HasNext():
		return "end> "
	case c.Engine.Conversation.IsActive():
		return "...> "
	default:
		return "> "
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/saves":
		c.cmdSaves()

	case "/delete":
		c.cmdDelete(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(slot string) {
	if slot == "" {
		slot = DefaultSlot
	}
	if c.Store == nil {
		c.printSystem("Save failed: no save store configured")
		return
	}

	data, err := c.Engine.Snapshot()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := c.Store.Put(context.Background(), slot, data); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", slot))
}

func (c *CLI) cmdLoad(slot string) {
	if slot == "" {
		slot = DefaultSlot
	}
	if c.Store == nil {
		c.printSystem("Load failed: no save store configured")
		return
	}

	data, err := c.Store.Get(context.Background(), slot)
	if errors.Is(err, save.ErrNotFound) {
		c.printSystem(fmt.Sprintf("Load failed: no save named %s", slot))
		return
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	if err := c.Engine.Restore(sd); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", slot, sd.Turn))
	for _, line := range c.Engine.Recap() {
		c.printLine(line)
	}
}

func (c *CLI) cmdSaves() {
	if c.Store == nil {
		c.printSystem("No save store configured.")
		return
	}
	slots, err := c.Store.List(context.Background())
	if err != nil {
		c.printSystem(fmt.Sprintf("Listing saves failed: %v", err))
		return
	}
	if len(slots) == 0 {
		c.printSystem("No saved games.")
		return
	}
	c.printSystem("Saved games: " + strings.Join(slots, ", "))
}

func (c *CLI) cmdDelete(slot string) {
	if slot == "" {
		c.printSystem("Usage: /delete <name>")
		return
	}
	if c.Store == nil {
		c.printSystem("Delete failed: no save store configured")
		return
	}
	if err := c.Store.Delete(context.Background(), slot); err != nil {
		c.printSystem(fmt.Sprintf("Delete failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Deleted %s.", slot))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]    Save game (default: quicksave)",
		"  /load [name]    Load game (default: quicksave)",
		"  /saves          List saved games",
		"  /delete <name>  Delete a saved game",
		"  /quit           Exit game",
		"  /help           Show this help",
		"  /state          Debug: dump current state",
		"  /trace          Toggle debug trace output",
		"",
		"Game commands:",
		"  talk <name>     Start a conversation (talk to, speak with)",
		"  next (n)        Continue; pressing enter does the same",
		"  <number>        Pick a reply (or: choose 2)",
		"  bye             End the conversation",
		"  look (l)        See who is around",
		"  inventory (i)   Check what you're carrying",
		"  quests (q)      Show your quest log",
		"  again           Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.Engine.State
	c.printSystem(fmt.Sprintf("Turn: %d", s.TurnCount))
	if cur := c.Engine.Cursor(); cur != nil {
		c.printSystem(fmt.Sprintf("Conversation: %s at %s (choosing: %t)", cur.NPC, cur.Node, cur.Choosing))
	} else {
		c.printSystem("Conversation: none")
	}
	c.printSystem(fmt.Sprintf("Inventory: %v", s.Player.Inventory))
	for _, q := range s.Player.Quests {
		c.printSystem(fmt.Sprintf("Quest: %s objectives=%v completed=%t", q.Quest, q.Objectives, q.Completed))
	}
	if len(s.Hostile) > 0 {
		var ids []string
		for id, hostile := range s.Hostile {
			if hostile {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		c.printSystem("Hostile: " + strings.Join(ids, ", "))
	}
	c.printSystem(fmt.Sprintf("RNG: seed=%d position=%d", s.RNGSeed, c.Engine.RNG.Position()))
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Events) == 0 {
		return
	}
	c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
	for _, e := range result.Events {
		c.printSystem(fmt.Sprintf("[trace]   %s", events.Trace(e)))
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
