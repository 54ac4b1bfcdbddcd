package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/JasFreaq/RPG-Project-sub000/types"
)

func sampleGraph() types.GraphDef {
	return types.GraphDef{
		ID:   "smith_talk",
		Root: "greet",
		Nodes: []types.NodeDef{
			{ID: "greet", Text: "Need something forged?", ChildIDs: []types.NodeID{"ask", "bye"}},
			{
				ID: "ask", IsPlayerSpeech: true, Text: "Any work?",
				ChildIDs: []types.NodeID{"offer"},
				Condition: types.Condition{And: []types.Disjunction{
					{Or: []types.Predicate{{Type: types.PredicateHasQuest, Negate: true, Parameters: []string{"ore_run"}}}},
					{Or: []types.Predicate{
						{Type: types.PredicateHasItem, Parameters: []string{"pickaxe"}},
						{Type: types.PredicateCompletedObjective, Parameters: []string{"ore_run", "mine"}},
					}},
				}},
			},
			{
				ID: "offer", Text: "Bring me ore.",
				Actions:     []types.ActionData{{Action: types.ActionGiveQuest}, {Action: types.ActionEditInventory, Parameter: "pickaxe"}},
				ExitActions: []types.ActionData{{Action: types.ActionNone}},
			},
			{ID: "bye", IsPlayerSpeech: true, Text: "Goodbye."},
		},
	}
}

func TestGraphYAML_RoundTrip(t *testing.T) {
	g := sampleGraph()
	data, err := EncodeGraphYAML(g)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeGraphYAML(data)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(got, g) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, g)
	}
}

func TestGraphJSON_RoundTrip(t *testing.T) {
	g := sampleGraph()
	data, err := EncodeGraphJSON(g)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeGraphJSON(data)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(got, g) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, g)
	}
}

func TestGraphYAML_Format(t *testing.T) {
	data, err := EncodeGraphYAML(sampleGraph())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"id: smith_talk", "root: greet", "is_player_speech: true", "negate: true", "predicate: has_quest", "action: give_quest"} {
		if !strings.Contains(text, want) {
			t.Errorf("yaml missing %q:\n%s", want, text)
		}
	}
	// Zero values are omitted.
	if strings.Contains(text, "negate: false") {
		t.Errorf("yaml should omit false negate:\n%s", text)
	}
}

func TestDecodeGraph_RejectsUnknownFields(t *testing.T) {
	if _, err := DecodeGraphYAML([]byte("id: x\nnodes: []\nspeaker: bob\n")); err == nil {
		t.Error("expected yaml error for unknown field")
	}
	if _, err := DecodeGraphJSON([]byte(`{"id":"x","nodes":[],"speaker":"bob"}`)); err == nil {
		t.Error("expected json error for unknown field")
	}
}

func TestLoadGraphFile_IDFromFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hermit.json")
	if err := os.WriteFile(path, []byte(`{"nodes":[{"id":"a","text":"Go away."}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadGraphFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.ID != "hermit" || len(g.Nodes) != 1 {
		t.Errorf("graph = %+v", g)
	}

	bad := filepath.Join(dir, "hermit.toml")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGraphFile(bad); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoadGraphDir(t *testing.T) {
	graphs, err := LoadGraphDir("testdata/full/dialogues")
	if err != nil {
		t.Fatal(err)
	}
	if len(graphs) != 1 || graphs[0].ID != "bard_talk" {
		t.Errorf("graphs = %+v", graphs)
	}

	// A missing directory is not an error.
	graphs, err = LoadGraphDir("testdata/minimal/dialogues")
	if err != nil || graphs != nil {
		t.Errorf("missing dir: graphs = %v, err = %v", graphs, err)
	}
}

func TestLoadGraphDir_DuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.json"} {
		data := `{"id":"same","nodes":[{"id":"n","text":"x"}]}`
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	_, err := LoadGraphDir(dir)
	if err == nil || !strings.Contains(err.Error(), `dialogue "same" defined in both`) {
		t.Errorf("err = %v", err)
	}
}

func TestExport_ReloadsIdentically(t *testing.T) {
	defs, err := Load("testdata/full", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	dir := t.TempDir()
	paths, err := Export(dir, defs)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(defs.Dialogues) {
		t.Fatalf("exported %d files, want %d", len(paths), len(defs.Dialogues))
	}
	if filepath.Base(paths[0]) != "bard_talk.yaml" {
		t.Errorf("first export = %s, want bard_talk.yaml", paths[0])
	}

	graphs, err := LoadGraphDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range graphs {
		if !reflect.DeepEqual(g, defs.Dialogues[g.ID]) {
			t.Errorf("dialogue %s changed after export:\n got %+v\nwant %+v", g.ID, g, defs.Dialogues[g.ID])
		}
	}
}
