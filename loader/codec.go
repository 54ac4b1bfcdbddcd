package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// DecodeGraphYAML parses a dialogue graph in YAML data form. Unknown fields
// are rejected.
func DecodeGraphYAML(data []byte) (types.GraphDef, error) {
	var g types.GraphDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return types.GraphDef{}, fmt.Errorf("decoding yaml graph: %w", err)
	}
	return g, nil
}

// DecodeGraphJSON parses a dialogue graph in JSON data form. Unknown fields
// are rejected.
func DecodeGraphJSON(data []byte) (types.GraphDef, error) {
	var g types.GraphDef
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return types.GraphDef{}, fmt.Errorf("decoding json graph: %w", err)
	}
	return g, nil
}

// EncodeGraphYAML renders a graph in YAML data form.
func EncodeGraphYAML(g types.GraphDef) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, fmt.Errorf("encoding graph %s: %w", g.ID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding graph %s: %w", g.ID, err)
	}
	return buf.Bytes(), nil
}

// EncodeGraphJSON renders a graph in JSON data form.
func EncodeGraphJSON(g types.GraphDef) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding graph %s: %w", g.ID, err)
	}
	return append(data, '\n'), nil
}

// LoadGraphFile reads one data-form graph. The format follows the file
// extension; a graph without an id takes the file's base name.
func LoadGraphFile(path string) (types.GraphDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.GraphDef{}, err
	}
	ext := filepath.Ext(path)
	var g types.GraphDef
	switch ext {
	case ".yaml", ".yml":
		g, err = DecodeGraphYAML(data)
	case ".json":
		g, err = DecodeGraphJSON(data)
	default:
		return types.GraphDef{}, fmt.Errorf("%s: unsupported graph format %q", path, ext)
	}
	if err != nil {
		return types.GraphDef{}, fmt.Errorf("%s: %w", path, err)
	}
	if g.ID == "" {
		g.ID = strings.TrimSuffix(filepath.Base(path), ext)
	}
	return g, nil
}

// LoadGraphDir reads every .yaml, .yml and .json graph in dir, sorted by
// file name. A missing directory yields no graphs.
func LoadGraphDir(dir string) ([]types.GraphDef, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dialogue directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seen := map[string]string{}
	graphs := make([]types.GraphDef, 0, len(names))
	for _, name := range names {
		g, err := LoadGraphFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[g.ID]; dup {
			return nil, fmt.Errorf("dialogue %q defined in both %s and %s", g.ID, prev, name)
		}
		seen[g.ID] = name
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// Export writes every dialogue in defs to dir as <id>.yaml and returns the
// written paths in id order.
func Export(dir string, defs *state.Defs) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	ids := make([]string, 0, len(defs.Dialogues))
	for id := range defs.Dialogues {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var paths []string
	for _, id := range ids {
		data, err := EncodeGraphYAML(defs.Dialogues[id])
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, id+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
