package dialogue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasFreaq/RPG-Project-sub000/engine/condition"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

func nodeIDs(nodes []*Node) []types.NodeID {
	var ids []types.NodeID
	for _, n := range nodes {
		ids = append(ids, n.ID())
	}
	return ids
}

func hubGraphDef() types.GraphDef {
	return types.GraphDef{
		ID: "hub",
		Nodes: []types.NodeDef{
			{ID: "root", Text: "What do you need?", ChildIDs: []types.NodeID{"ask", "ghost", "bye", "npc_aside"}},
			{ID: "ask", IsPlayerSpeech: true, Text: "Any work?", ChildIDs: []types.NodeID{"answer"}},
			{ID: "bye", IsPlayerSpeech: true, Text: "Farewell."},
			{ID: "npc_aside", Text: "Hmm."},
			{ID: "answer", Text: "Plenty. Ask again.", ChildIDs: []types.NodeID{"root"}},
		},
	}
}

func TestNewGraph_Empty(t *testing.T) {
	_, err := NewGraph(types.GraphDef{ID: "nothing"})
	assert.True(t, errors.Is(err, ErrEmptyGraph))
}

func TestNewGraph_Minimal(t *testing.T) {
	g, err := NewGraph(types.GraphDef{ID: "one", Nodes: []types.NodeDef{{ID: "only"}}})
	require.NoError(t, err)
	assert.Equal(t, types.NodeID("only"), g.Root().ID())
	assert.Empty(t, g.Children(g.Root()))
	assert.Equal(t, "one", g.ID())
}

func TestNewGraph_DuplicateID(t *testing.T) {
	_, err := NewGraph(types.GraphDef{ID: "dup", Nodes: []types.NodeDef{{ID: "a"}, {ID: "a"}}})
	assert.True(t, errors.Is(err, ErrDuplicateNode))
}

func TestNewGraph_ExplicitRoot(t *testing.T) {
	def := hubGraphDef()
	def.Root = "answer"
	g, err := NewGraph(def)
	require.NoError(t, err)
	assert.Equal(t, types.NodeID("answer"), g.Root().ID())

	def.Root = "missing"
	_, err = NewGraph(def)
	assert.True(t, errors.Is(err, ErrRootNotFound))
}

func TestGraph_ChildrenSkipsDangling(t *testing.T) {
	g, err := NewGraph(hubGraphDef())
	require.NoError(t, err)

	kids := g.Children(g.Root())
	assert.Equal(t, []types.NodeID{"ask", "bye", "npc_aside"}, nodeIDs(kids), "authored order, dangling 'ghost' skipped")
	assert.Nil(t, g.Children(nil))
}

func TestGraph_PlayerChildren(t *testing.T) {
	g, err := NewGraph(hubGraphDef())
	require.NoError(t, err)

	assert.Equal(t, []types.NodeID{"ask", "bye"}, nodeIDs(g.PlayerChildren(g.Root())))
	assert.Empty(t, g.PlayerChildren(g.Node("ask")))
}

func TestGraph_CyclesAllowed(t *testing.T) {
	g, err := NewGraph(hubGraphDef())
	require.NoError(t, err)

	answer := g.Node("answer")
	require.NotNil(t, answer)
	assert.Equal(t, []types.NodeID{"root"}, nodeIDs(g.Children(answer)))

	reach := g.Reachable()
	assert.ElementsMatch(t, []types.NodeID{"root", "ask", "bye", "npc_aside", "answer"}, reach)
	assert.Equal(t, types.NodeID("root"), reach[0])
}

func TestGraph_NodeLookup(t *testing.T) {
	g, err := NewGraph(hubGraphDef())
	require.NoError(t, err)
	assert.Nil(t, g.Node("ghost"))
	assert.Len(t, g.Nodes(), 5)
}

func TestGraph_DefIsACopy(t *testing.T) {
	def := hubGraphDef()
	def.Nodes[0].Condition = types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
		{Type: types.PredicateHasItem, Parameters: []string{"key"}},
	}}}}
	g, err := NewGraph(def)
	require.NoError(t, err)

	// Mutating the source after construction must not leak into the graph.
	def.Nodes[0].ChildIDs[0] = "changed"
	def.Nodes[0].Condition.And[0].Or[0].Parameters[0] = "changed"
	assert.Equal(t, types.NodeID("ask"), g.Root().ChildIDs()[0])
	assert.Equal(t, "key", g.Root().Condition().And[0].Or[0].Parameters[0])

	out := g.Def()
	assert.Equal(t, types.NodeID("root"), out.Root)
	assert.Len(t, out.Nodes, 5)
	assert.Equal(t, "key", out.Nodes[0].Condition.And[0].Or[0].Parameters[0])
}

func TestNode_EvaluateCondition(t *testing.T) {
	have := false
	reg := condition.NewRegistry(nil)
	require.NoError(t, reg.Register(condition.EvaluatorFunc(func(types.PredicateType, []string) (bool, bool) {
		return have, true
	}), types.PredicateHasItem))

	g, err := NewGraph(types.GraphDef{ID: "g", Nodes: []types.NodeDef{{
		ID: "gated",
		Condition: types.Condition{And: []types.Disjunction{{Or: []types.Predicate{
			{Type: types.PredicateHasItem, Parameters: []string{"Key"}},
		}}}},
	}}})
	require.NoError(t, err)

	assert.False(t, g.Root().EvaluateCondition(reg))
	have = true
	assert.True(t, g.Root().EvaluateCondition(reg))
}
