// Package loader loads Lua dialogue content into Go structs at load time.
// The Lua VM is discarded after loading; no Lua runs during play.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
)

// DialogueDir is the subdirectory holding dialogue graphs in data form
// (.yaml, .yml or .json).
const DialogueDir = "dialogues"

// collector accumulates Lua definitions during file execution.
type collector struct {
	game      *lua.LTable
	npcs      []rawDef
	quests    []rawDef
	items     []rawDef
	dialogues []rawDef
}

// rawDef holds a named definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// Load reads all .lua files from dir plus any data-form graphs under
// dir/dialogues, compiles them into game definitions, validates references
// and returns the immutable Defs. Validation warnings are logged; a nil
// logger uses slog.Default().
func Load(dir string, logger *slog.Logger) (*state.Defs, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Discover .lua files.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	// Sort: game.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	// Data-form graphs sit next to the Lua content.
	graphs, err := LoadGraphDir(filepath.Join(dir, DialogueDir))
	if err != nil {
		return nil, err
	}
	for _, g := range graphs {
		if _, dup := defs.Dialogues[g.ID]; dup {
			return nil, fmt.Errorf("dialogue %q defined in both Lua and %s/", g.ID, DialogueDir)
		}
		defs.Dialogues[g.ID] = g
	}

	if err := validate(defs, logger.With("dir", dir)); err != nil {
		return nil, err
	}

	logger.Debug("content loaded", "dir", dir,
		"npcs", len(defs.NPCs), "dialogues", len(defs.Dialogues), "quests", len(defs.Quests))
	return defs, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the content directory or
// break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Branch picks are seeded by the engine, not by content.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}
}
