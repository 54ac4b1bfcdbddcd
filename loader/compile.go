package loader

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// stringList converts the array part of a Lua table to strings. Numbers are
// formatted the way Lua prints them.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		switch v := tbl.RawGetInt(i).(type) {
		case lua.LString:
			out = append(out, string(v))
		case lua.LNumber:
			out = append(out, v.String())
		}
	}
	return out
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		NPCs:      map[string]types.NPCDef{},
		Quests:    map[string]types.QuestDef{},
		Items:     map[string]types.ItemDef{},
		Dialogues: map[string]types.GraphDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.items {
		if _, dup := defs.Items[raw.id]; dup {
			return nil, fmt.Errorf("duplicate item %q", raw.id)
		}
		defs.Items[raw.id] = compileItem(raw)
	}

	for _, raw := range coll.quests {
		if _, dup := defs.Quests[raw.id]; dup {
			return nil, fmt.Errorf("duplicate quest %q", raw.id)
		}
		quest, err := compileQuest(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling quest %s: %w", raw.id, err)
		}
		defs.Quests[raw.id] = quest
	}

	for _, raw := range coll.npcs {
		if _, dup := defs.NPCs[raw.id]; dup {
			return nil, fmt.Errorf("duplicate npc %q", raw.id)
		}
		defs.NPCs[raw.id] = compileNPC(raw)
	}

	for _, raw := range coll.dialogues {
		if _, dup := defs.Dialogues[raw.id]; dup {
			return nil, fmt.Errorf("duplicate dialogue %q", raw.id)
		}
		g, err := compileDialogue(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling dialogue %s: %w", raw.id, err)
		}
		defs.Dialogues[raw.id] = g
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Player:  getString(tbl, "player"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileItem(raw rawDef) types.ItemDef {
	return types.ItemDef{
		ID:          raw.id,
		Name:        getString(raw.table, "name"),
		Description: getString(raw.table, "description"),
	}
}

func compileNPC(raw rawDef) types.NPCDef {
	return types.NPCDef{
		ID:       raw.id,
		Name:     getString(raw.table, "name"),
		Dialogue: getString(raw.table, "dialogue"),
		Quest:    getString(raw.table, "quest"),
		Allies:   stringList(getTable(raw.table, "allies")),
	}
}

// compileQuest accepts objectives as plain reference strings or as
// { id = "...", description = "..." } tables.
func compileQuest(raw rawDef) (types.QuestDef, error) {
	quest := types.QuestDef{
		ID:          raw.id,
		Title:       getString(raw.table, "title"),
		Description: getString(raw.table, "description"),
	}
	objs := getTable(raw.table, "objectives")
	if objs == nil {
		return quest, nil
	}
	for i := 1; i <= objs.MaxN(); i++ {
		switch v := objs.RawGetInt(i).(type) {
		case lua.LString:
			quest.Objectives = append(quest.Objectives, types.ObjectiveDef{Reference: string(v)})
		case *lua.LTable:
			ref := getString(v, "id")
			if ref == "" {
				ref = getString(v, "ref")
			}
			quest.Objectives = append(quest.Objectives, types.ObjectiveDef{
				Reference:   ref,
				Description: getString(v, "description"),
			})
		default:
			return quest, fmt.Errorf("objective %d: expected a string or table, got %s", i, v.Type())
		}
	}
	return quest, nil
}

// compileDialogue collects nodes from the table's array part followed by
// an optional nodes = { ... } field.
func compileDialogue(raw rawDef) (types.GraphDef, error) {
	g := types.GraphDef{
		ID:   raw.id,
		Root: types.NodeID(getString(raw.table, "root")),
	}

	var sources []*lua.LTable
	for i := 1; i <= raw.table.MaxN(); i++ {
		tbl, ok := raw.table.RawGetInt(i).(*lua.LTable)
		if !ok {
			return g, fmt.Errorf("entry %d: expected a Node", i)
		}
		sources = append(sources, tbl)
	}
	if nodes := getTable(raw.table, "nodes"); nodes != nil {
		for i := 1; i <= nodes.MaxN(); i++ {
			tbl, ok := nodes.RawGetInt(i).(*lua.LTable)
			if !ok {
				return g, fmt.Errorf("nodes[%d]: expected a Node", i)
			}
			sources = append(sources, tbl)
		}
	}

	for i, tbl := range sources {
		nodes, err := compileNode(g.ID, "", i, tbl)
		if err != nil {
			return g, err
		}
		g.Nodes = append(g.Nodes, nodes...)
	}
	return g, nil
}

// nodeNamespace seeds the name-based IDs of nodes declared without an id.
var nodeNamespace = uuid.MustParse("6f1c2b0e-8d4a-4e59-9a3c-2d7f5b1e0c48")

// generatedNodeID names an anonymous node by where it sits in the graph.
// Loading the same content twice yields the same IDs.
func generatedNodeID(graphID, parentID string, index int) string {
	return uuid.NewSHA1(nodeNamespace, []byte(graphID+"/"+parentID+"/"+strconv.Itoa(index))).String()
}

// compileNode compiles a node and any nodes inlined among its children. The
// node itself comes first. index is the node's position among its parent's
// children, or among the graph's top-level nodes when parentID is empty.
func compileNode(graphID, parentID string, index int, tbl *lua.LTable) ([]types.NodeDef, error) {
	id := getString(tbl, "id")
	if id == "" {
		id = generatedNodeID(graphID, parentID, index)
	}
	node := types.NodeDef{
		ID:             types.NodeID(id),
		IsPlayerSpeech: getBool(tbl, "player", false),
		Text:           getString(tbl, "text"),
	}

	cond, err := compileCondition(tbl.RawGetString("condition"))
	if err != nil {
		return nil, fmt.Errorf("node %s: condition: %w", id, err)
	}
	node.Condition = cond

	if node.Actions, err = compileActions(getTable(tbl, "actions")); err != nil {
		return nil, fmt.Errorf("node %s: actions: %w", id, err)
	}
	if node.ExitActions, err = compileActions(getTable(tbl, "exit_actions")); err != nil {
		return nil, fmt.Errorf("node %s: exit_actions: %w", id, err)
	}

	var inline []types.NodeDef
	if children := getTable(tbl, "children"); children != nil {
		for i := 1; i <= children.MaxN(); i++ {
			switch v := children.RawGetInt(i).(type) {
			case lua.LString:
				node.ChildIDs = append(node.ChildIDs, types.NodeID(v))
			case *lua.LTable:
				sub, err := compileNode(graphID, id, i, v)
				if err != nil {
					return nil, err
				}
				node.ChildIDs = append(node.ChildIDs, sub[0].ID)
				inline = append(inline, sub...)
			default:
				return nil, fmt.Errorf("node %s: child %d: expected an id or a Node", id, i)
			}
		}
	}

	return append([]types.NodeDef{node}, inline...), nil
}

// compileCondition turns a predicate, Any() or All() table into the
// AND-of-ORs form. nil is the always-true condition.
func compileCondition(v lua.LValue) (types.Condition, error) {
	var cond types.Condition
	tbl, ok := v.(*lua.LTable)
	if !ok {
		if v == lua.LNil {
			return cond, nil
		}
		return cond, fmt.Errorf("expected a table, got %s", v.Type())
	}

	switch getString(tbl, kindKey) {
	case kindAll:
		for i := 1; i <= tbl.MaxN(); i++ {
			item, _ := tbl.RawGetInt(i).(*lua.LTable)
			if item == nil {
				return cond, fmt.Errorf("All() entry %d is not a table", i)
			}
			d, err := compileDisjunction(item)
			if err != nil {
				return cond, err
			}
			cond.And = append(cond.And, d)
		}
	default:
		d, err := compileDisjunction(tbl)
		if err != nil {
			return cond, err
		}
		cond.And = append(cond.And, d)
	}
	return cond, nil
}

// compileDisjunction accepts a single predicate or an Any() group.
func compileDisjunction(tbl *lua.LTable) (types.Disjunction, error) {
	var d types.Disjunction
	if getString(tbl, kindKey) == kindAny {
		for i := 1; i <= tbl.MaxN(); i++ {
			item, _ := tbl.RawGetInt(i).(*lua.LTable)
			if item == nil {
				return d, fmt.Errorf("Any() entry %d is not a table", i)
			}
			p, err := compilePredicate(item)
			if err != nil {
				return d, err
			}
			d.Or = append(d.Or, p)
		}
		return d, nil
	}
	p, err := compilePredicate(tbl)
	if err != nil {
		return d, err
	}
	d.Or = append(d.Or, p)
	return d, nil
}

func compilePredicate(tbl *lua.LTable) (types.Predicate, error) {
	typ := getString(tbl, "predicate")
	if typ == "" {
		return types.Predicate{}, fmt.Errorf("expected a predicate, All() or Any()")
	}
	return types.Predicate{
		Type:       types.PredicateType(typ),
		Negate:     getBool(tbl, "negate", false),
		Parameters: stringList(getTable(tbl, "parameters")),
	}, nil
}

func compileActions(tbl *lua.LTable) ([]types.ActionData, error) {
	if tbl == nil {
		return nil, nil
	}
	var out []types.ActionData
	for i := 1; i <= tbl.MaxN(); i++ {
		item, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok || getString(item, "action") == "" {
			return nil, fmt.Errorf("entry %d is not an action", i)
		}
		out = append(out, types.ActionData{
			Action:    types.ActionType(getString(item, "action")),
			Parameter: getString(item, "parameter"),
		})
	}
	return out, nil
}

// sortedLuaFiles returns game.lua first, then the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
