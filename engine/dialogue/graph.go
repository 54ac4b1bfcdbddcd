// Package dialogue implements dialogue graphs and the conversation state
// machine that walks them.
//
// A Graph is immutable once built and may be shared by any number of
// conversations; each Conversation owns only its own cursor.
package dialogue

import (
	"errors"
	"fmt"

	"github.com/JasFreaq/RPG-Project-sub000/engine/condition"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

var (
	// ErrEmptyGraph is returned when a graph has no nodes.
	ErrEmptyGraph = errors.New("dialogue: graph has no nodes")
	// ErrDuplicateNode is returned when two nodes share an ID.
	ErrDuplicateNode = errors.New("dialogue: duplicate node id")
	// ErrRootNotFound is returned when the declared root is not a node of the graph.
	ErrRootNotFound = errors.New("dialogue: root node not found")
)

// Node is the runtime view of a single utterance. It exposes accessors only.
type Node struct {
	def types.NodeDef
}

// ID returns the node's identifier.
func (n *Node) ID() types.NodeID { return n.def.ID }

// IsPlayerSpeech reports whether the player speaks this line.
func (n *Node) IsPlayerSpeech() bool { return n.def.IsPlayerSpeech }

// Text returns the line of dialogue.
func (n *Node) Text() string { return n.def.Text }

// Condition returns the node's entry gate.
func (n *Node) Condition() types.Condition { return n.def.Condition }

// Actions returns the actions fired when the node is entered.
func (n *Node) Actions() []types.ActionData { return n.def.Actions }

// ExitActions returns the legacy actions fired when the cursor leaves the node.
func (n *Node) ExitActions() []types.ActionData { return n.def.ExitActions }

// ChildIDs returns the authored child references, in order.
func (n *Node) ChildIDs() []types.NodeID { return n.def.ChildIDs }

// EvaluateCondition reports whether the node may currently be entered.
func (n *Node) EvaluateCondition(reg *condition.Registry) bool {
	return condition.EvalCondition(n.def.Condition, reg)
}

// Graph is a set of dialogue nodes linked by child IDs. Cycles are allowed.
type Graph struct {
	id    string
	nodes []*Node
	byID  map[types.NodeID]*Node
	root  *Node
}

// NewGraph builds a graph from its authored form. The root is def.Root when
// set, otherwise the first node.
func NewGraph(def types.GraphDef) (*Graph, error) {
	if len(def.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGraph, def.ID)
	}

	g := &Graph{
		id:    def.ID,
		nodes: make([]*Node, 0, len(def.Nodes)),
		byID:  make(map[types.NodeID]*Node, len(def.Nodes)),
	}
	for _, nd := range def.Nodes {
		if _, exists := g.byID[nd.ID]; exists {
			return nil, fmt.Errorf("%w: graph %s node %s", ErrDuplicateNode, def.ID, nd.ID)
		}
		n := &Node{def: cloneNode(nd)}
		g.nodes = append(g.nodes, n)
		g.byID[nd.ID] = n
	}

	g.root = g.nodes[0]
	if def.Root != "" {
		root, ok := g.byID[def.Root]
		if !ok {
			return nil, fmt.Errorf("%w: graph %s root %s", ErrRootNotFound, def.ID, def.Root)
		}
		g.root = root
	}
	return g, nil
}

// ID returns the graph identifier.
func (g *Graph) ID() string { return g.id }

// Root returns the node a conversation starts from.
func (g *Graph) Root() *Node { return g.root }

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id types.NodeID) *Node { return g.byID[id] }

// Nodes returns all nodes in authored order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Children resolves a node's child IDs. Dangling IDs are skipped.
func (g *Graph) Children(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var result []*Node
	for _, id := range n.def.ChildIDs {
		if child, ok := g.byID[id]; ok {
			result = append(result, child)
		}
	}
	return result
}

// PlayerChildren returns the children of n spoken by the player.
func (g *Graph) PlayerChildren(n *Node) []*Node {
	var result []*Node
	for _, child := range g.Children(n) {
		if child.IsPlayerSpeech() {
			result = append(result, child)
		}
	}
	return result
}

// Reachable returns the IDs of all nodes reachable from the root, in
// breadth-first order.
func (g *Graph) Reachable() []types.NodeID {
	seen := map[types.NodeID]bool{g.root.ID(): true}
	queue := []*Node{g.root}
	var order []types.NodeID
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr.ID())
		for _, child := range g.Children(curr) {
			if !seen[child.ID()] {
				seen[child.ID()] = true
				queue = append(queue, child)
			}
		}
	}
	return order
}

// Def returns the authored form of the graph.
func (g *Graph) Def() types.GraphDef {
	def := types.GraphDef{
		ID:    g.id,
		Root:  g.root.ID(),
		Nodes: make([]types.NodeDef, 0, len(g.nodes)),
	}
	for _, n := range g.nodes {
		def.Nodes = append(def.Nodes, cloneNode(n.def))
	}
	return def
}

func cloneNode(nd types.NodeDef) types.NodeDef {
	out := nd
	out.ChildIDs = append([]types.NodeID(nil), nd.ChildIDs...)
	out.Actions = append([]types.ActionData(nil), nd.Actions...)
	out.ExitActions = append([]types.ActionData(nil), nd.ExitActions...)
	out.Condition = types.Condition{}
	for _, d := range nd.Condition.And {
		var or []types.Predicate
		for _, p := range d.Or {
			p.Parameters = append([]string(nil), p.Parameters...)
			or = append(or, p)
		}
		out.Condition.And = append(out.Condition.And, types.Disjunction{Or: or})
	}
	return out
}
