package loader

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

func TestCompileGame(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			title = "Test Game",
			author = "Author",
			version = "1.0",
			player = "Aria",
			intro = "Welcome!"
		}
	`); err != nil {
		t.Fatal(err)
	}

	game := compileGame(L.CheckTable(-1))

	want := types.GameDef{Title: "Test Game", Author: "Author", Version: "1.0", Player: "Aria", Intro: "Welcome!"}
	if game != want {
		t.Errorf("game = %+v, want %+v", game, want)
	}
}

func TestCompileNPC(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		NPC "guard" { name = "Gate Guard", dialogue = "guard_talk", quest = "patrol", allies = { "smith", "bard" } }
	`); err != nil {
		t.Fatal(err)
	}
	if len(coll.npcs) != 1 {
		t.Fatalf("expected 1 npc, got %d", len(coll.npcs))
	}

	npc := compileNPC(coll.npcs[0])
	if npc.ID != "guard" || npc.Name != "Gate Guard" || npc.Dialogue != "guard_talk" || npc.Quest != "patrol" {
		t.Errorf("npc = %+v", npc)
	}
	if strings.Join(npc.Allies, ",") != "smith,bard" {
		t.Errorf("allies = %v", npc.Allies)
	}
}

func TestCompileQuest_ObjectiveForms(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Quest "q" {
			title = "Q",
			objectives = { "plain", { id = "tbl", description = "Described" }, { ref = "alt" } },
		}
	`); err != nil {
		t.Fatal(err)
	}

	q, err := compileQuest(coll.quests[0])
	if err != nil {
		t.Fatal(err)
	}
	want := []types.ObjectiveDef{
		{Reference: "plain"},
		{Reference: "tbl", Description: "Described"},
		{Reference: "alt"},
	}
	if len(q.Objectives) != len(want) {
		t.Fatalf("objectives = %+v", q.Objectives)
	}
	for i := range want {
		if q.Objectives[i] != want[i] {
			t.Errorf("objective %d = %+v, want %+v", i, q.Objectives[i], want[i])
		}
	}
}

func TestCompileQuest_BadObjective(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`Quest "q" { objectives = { true } }`); err != nil {
		t.Fatal(err)
	}
	if _, err := compileQuest(coll.quests[0]); err == nil {
		t.Fatal("expected error for boolean objective")
	}
}

func TestCompileConditions(t *testing.T) {
	tests := []struct {
		name string
		lua  string
		want types.Condition
	}{
		{
			name: "nil",
			lua:  `return nil`,
			want: types.Condition{},
		},
		{
			name: "single predicate",
			lua:  `return HasItem("ore")`,
			want: types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
				{Type: types.PredicateHasItem, Parameters: []string{"ore"}},
			}}}},
		},
		{
			name: "item count",
			lua:  `return HasItem("ore", 3)`,
			want: types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
				{Type: types.PredicateHasItem, Parameters: []string{"ore", "3"}},
			}}}},
		},
		{
			name: "negated",
			lua:  `return Not(HasQuest("q"))`,
			want: types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
				{Type: types.PredicateHasQuest, Negate: true, Parameters: []string{"q"}},
			}}}},
		},
		{
			name: "double negation",
			lua:  `return Not(Not(CompletedQuest("q")))`,
			want: types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
				{Type: types.PredicateCompletedQuest, Parameters: []string{"q"}},
			}}}},
		},
		{
			name: "any",
			lua:  `return Any(HasQuest("a"), CompletedObjective("a", "o"))`,
			want: types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
				{Type: types.PredicateHasQuest, Parameters: []string{"a"}},
				{Type: types.PredicateCompletedObjective, Parameters: []string{"a", "o"}},
			}}}},
		},
		{
			name: "all of predicate and any",
			lua:  `return All(HasItem("x"), Any(Not(HasQuest("a")), Predicate("weather", "rain")))`,
			want: types.Condition{And: []types.Disjunction{
				{Or: []types.Predicate{{Type: types.PredicateHasItem, Parameters: []string{"x"}}}},
				{Or: []types.Predicate{
					{Type: types.PredicateHasQuest, Negate: true, Parameters: []string{"a"}},
					{Type: "weather", Parameters: []string{"rain"}},
				}},
			}},
		},
		{
			name: "empty any",
			lua:  `return Any()`,
			want: types.Condition{And: []types.Disjunction{{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L, _ := newTestVM()
			defer L.Close()
			if err := L.DoString(tt.lua); err != nil {
				t.Fatal(err)
			}
			got, err := compileCondition(L.Get(-1))
			if err != nil {
				t.Fatal(err)
			}
			if !conditionEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConditionHelpers_RejectMisuse(t *testing.T) {
	bad := []string{
		`return Not(Any(HasQuest("a")))`,
		`return Any(All(HasQuest("a")))`,
		`return All(All(HasQuest("a")))`,
		`return HasQuest()`,
		`return CompletedObjective("only_quest")`,
	}
	for _, code := range bad {
		L, _ := newTestVM()
		if err := L.DoString(code); err == nil {
			t.Errorf("expected error for %s", code)
		}
		L.Close()
	}
}

func TestCompileActions(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		return {
			GiveQuest(),
			GiveQuest("other"),
			CompleteObjective("mine"),
			CompleteObjective("q", "deliver"),
			CompleteQuest(),
			Attack(),
			EditInventory("-ore:2"),
			GiveItem("gem"),
			GiveItem("coin", 5),
			TakeItem("key"),
			Action("none"),
		}
	`); err != nil {
		t.Fatal(err)
	}

	got, err := compileActions(L.CheckTable(-1))
	if err != nil {
		t.Fatal(err)
	}
	want := []types.ActionData{
		{Action: types.ActionGiveQuest},
		{Action: types.ActionGiveQuest, Parameter: "other"},
		{Action: types.ActionCompleteObjective, Parameter: "mine"},
		{Action: types.ActionCompleteObjective, Parameter: "q:deliver"},
		{Action: types.ActionCompleteQuest},
		{Action: types.ActionAttack},
		{Action: types.ActionEditInventory, Parameter: "-ore:2"},
		{Action: types.ActionEditInventory, Parameter: "gem"},
		{Action: types.ActionEditInventory, Parameter: "coin:5"},
		{Action: types.ActionEditInventory, Parameter: "-key"},
		{Action: types.ActionNone},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d actions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCompileActions_RejectsNonActions(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`return { HasItem("x") }`); err != nil {
		t.Fatal(err)
	}
	if _, err := compileActions(L.CheckTable(-1)); err == nil {
		t.Fatal("expected error for a predicate in an action list")
	}
}

func TestCompileDialogue_InlineChildren(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Dialogue "d" {
			Node "root" {
				text = "Hi.",
				children = {
					"named",
					Node { player = true, text = "Inline reply.", children = {
						Node "deep" { text = "Deep answer." },
					} },
				},
			},
			Node "named" { text = "Named." },
		}
	`); err != nil {
		t.Fatal(err)
	}

	g, err := compileDialogue(coll.dialogues[0])
	if err != nil {
		t.Fatal(err)
	}

	// Parents precede their inline children; named siblings follow.
	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, string(n.ID))
	}
	if len(ids) != 4 || ids[0] != "root" || ids[2] != "deep" || ids[3] != "named" {
		t.Fatalf("node order = %v", ids)
	}
	inline := g.Nodes[1]
	if !inline.IsPlayerSpeech || inline.Text != "Inline reply." {
		t.Errorf("inline = %+v", inline)
	}
	if g.Nodes[0].ChildIDs[1] != inline.ID {
		t.Errorf("root children = %v, want inline id %s second", g.Nodes[0].ChildIDs, inline.ID)
	}
	if len(inline.ChildIDs) != 1 || inline.ChildIDs[0] != "deep" {
		t.Errorf("inline children = %v", inline.ChildIDs)
	}
}

func TestCompileDialogue_GeneratedIDsAreUnique(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`
		Dialogue "d" { Node { text = "a" }, Node { text = "b" }, Node { text = "c" } }
	`); err != nil {
		t.Fatal(err)
	}
	g, err := compileDialogue(coll.dialogues[0])
	if err != nil {
		t.Fatal(err)
	}
	seen := map[types.NodeID]bool{}
	for _, n := range g.Nodes {
		if n.ID == "" || seen[n.ID] {
			t.Errorf("bad or repeated id %q", n.ID)
		}
		seen[n.ID] = true
	}
}

func TestCompileDialogue_GeneratedIDsAreStable(t *testing.T) {
	const src = `
		Dialogue "d" {
			Node { text = "a", children = { Node { text = "a1" }, Node { text = "a2" } } },
			Node "b" { text = "b", children = { Node { text = "b1" } } },
		}
	`
	compileIDs := func() []types.NodeID {
		L, coll := newTestVM()
		defer L.Close()
		if err := L.DoString(src); err != nil {
			t.Fatal(err)
		}
		g, err := compileDialogue(coll.dialogues[0])
		if err != nil {
			t.Fatal(err)
		}
		var ids []types.NodeID
		for _, n := range g.Nodes {
			ids = append(ids, n.ID)
		}
		return ids
	}

	first, second := compileIDs(), compileIDs()
	if len(first) != 5 {
		t.Fatalf("ids = %v", first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("node %d: id %q then %q", i, first[i], second[i])
		}
	}
	if first[4] != types.NodeID(generatedNodeID("d", "b", 1)) {
		t.Errorf("inline child of b = %q", first[4])
	}
}

func TestCompileDialogue_RejectsNonTables(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	if err := L.DoString(`Dialogue "d" { "oops" }`); err != nil {
		t.Fatal(err)
	}
	if _, err := compileDialogue(coll.dialogues[0]); err == nil {
		t.Fatal("expected error for a string entry")
	}
}

func TestCompile_Duplicates(t *testing.T) {
	tests := []struct {
		name string
		lua  string
		want string
	}{
		{"item", `Item "x" {} Item "x" {}`, `duplicate item "x"`},
		{"quest", `Quest "x" {} Quest "x" {}`, `duplicate quest "x"`},
		{"dialogue", `Dialogue "x" { Node "a" {} } Dialogue "x" { Node "a" {} }`, `duplicate dialogue "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L, coll := newTestVM()
			defer L.Close()
			if err := L.DoString(`Game { title = "T" } ` + tt.lua); err != nil {
				t.Fatal(err)
			}
			_, err := compile(coll)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
