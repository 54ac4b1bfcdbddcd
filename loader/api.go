package loader

import (
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/JasFreaq/RPG-Project-sub000/types"
)

// Marker values stored under kindKey so compile can tell helper tables apart.
const (
	kindKey       = "__kind"
	kindNode      = "node"
	kindPredicate = "predicate"
	kindAny       = "any"
	kindAll       = "all"
	kindAction    = "action"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerActionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// NPC "id" { ... }, Quest "id" { ... }, Item "id" { ... } and
	// Dialogue "id" { ... } are curried: the call with the id returns a
	// function that takes the body table.
	curried := func(dst *[]rawDef) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				*dst = append(*dst, rawDef{id: id, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		})
	}
	L.SetGlobal("NPC", curried(&coll.npcs))
	L.SetGlobal("Quest", curried(&coll.quests))
	L.SetGlobal("Item", curried(&coll.items))
	L.SetGlobal("Dialogue", curried(&coll.dialogues))

	// Node "id" { ... } or Node { ... }. Returns the marked node table so
	// it can be listed in a Dialogue or inlined as a child.
	L.SetGlobal("Node", L.NewFunction(func(L *lua.LState) int {
		if tbl, ok := L.Get(1).(*lua.LTable); ok {
			tbl.RawSetString(kindKey, lua.LString(kindNode))
			L.Push(tbl)
			return 1
		}
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			tbl.RawSetString("id", lua.LString(id))
			tbl.RawSetString(kindKey, lua.LString(kindNode))
			L.Push(tbl)
			return 1
		}))
		return 1
	}))
}

func registerConditionHelpers(L *lua.LState) {
	// HasQuest("quest")
	L.SetGlobal("HasQuest", L.NewFunction(func(L *lua.LState) int {
		L.Push(predicateTable(L, types.PredicateHasQuest, L.CheckString(1)))
		return 1
	}))

	// CompletedQuest("quest")
	L.SetGlobal("CompletedQuest", L.NewFunction(func(L *lua.LState) int {
		L.Push(predicateTable(L, types.PredicateCompletedQuest, L.CheckString(1)))
		return 1
	}))

	// CompletedObjective("quest", "objective")
	L.SetGlobal("CompletedObjective", L.NewFunction(func(L *lua.LState) int {
		L.Push(predicateTable(L, types.PredicateCompletedObjective, L.CheckString(1), L.CheckString(2)))
		return 1
	}))

	// HasItem("item") or HasItem("item", 3)
	L.SetGlobal("HasItem", L.NewFunction(func(L *lua.LState) int {
		params := []string{L.CheckString(1)}
		if L.GetTop() >= 2 {
			params = append(params, strconv.Itoa(L.CheckInt(2)))
		}
		L.Push(predicateTable(L, types.PredicateHasItem, params...))
		return 1
	}))

	// Predicate("type", "param", ...) for evaluators registered by the host.
	L.SetGlobal("Predicate", L.NewFunction(func(L *lua.LState) int {
		typ := L.CheckString(1)
		var params []string
		for i := 2; i <= L.GetTop(); i++ {
			params = append(params, L.CheckString(i))
		}
		L.Push(predicateTable(L, types.PredicateType(typ), params...))
		return 1
	}))

	// Not(predicate) flips the negate flag on a copy.
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		src := L.CheckTable(1)
		if getString(src, kindKey) != kindPredicate {
			L.ArgError(1, "Not() takes a single predicate")
			return 0
		}
		dst := L.NewTable()
		src.ForEach(func(k, v lua.LValue) { dst.RawSet(k, v) })
		dst.RawSetString("negate", lua.LBool(!getBool(src, "negate", false)))
		L.Push(dst)
		return 1
	}))

	// Any(p1, p2, ...) is one OR group of predicates.
	L.SetGlobal("Any", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString(kindKey, lua.LString(kindAny))
		for i := 1; i <= L.GetTop(); i++ {
			p := L.CheckTable(i)
			if getString(p, kindKey) != kindPredicate {
				L.ArgError(i, "Any() takes predicates")
				return 0
			}
			tbl.Append(p)
		}
		L.Push(tbl)
		return 1
	}))

	// All(a, b, ...) requires every argument; each is a predicate or Any().
	L.SetGlobal("All", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString(kindKey, lua.LString(kindAll))
		for i := 1; i <= L.GetTop(); i++ {
			p := L.CheckTable(i)
			switch getString(p, kindKey) {
			case kindPredicate, kindAny:
				tbl.Append(p)
			default:
				L.ArgError(i, "All() takes predicates or Any() groups")
				return 0
			}
		}
		L.Push(tbl)
		return 1
	}))
}

func registerActionHelpers(L *lua.LState) {
	// GiveQuest() or GiveQuest("quest"). Without a quest the NPC's own is used.
	L.SetGlobal("GiveQuest", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionGiveQuest, L.OptString(1, "")))
		return 1
	}))

	// CompleteQuest() or CompleteQuest("quest").
	L.SetGlobal("CompleteQuest", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionCompleteQuest, L.OptString(1, "")))
		return 1
	}))

	// CompleteObjective("objective") or CompleteObjective("quest", "objective").
	L.SetGlobal("CompleteObjective", L.NewFunction(func(L *lua.LState) int {
		param := L.CheckString(1)
		if L.GetTop() >= 2 {
			param += ":" + L.CheckString(2)
		}
		L.Push(actionTable(L, types.ActionCompleteObjective, param))
		return 1
	}))

	// Attack()
	L.SetGlobal("Attack", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionAttack, ""))
		return 1
	}))

	// EditInventory("[-]item[:count]")
	L.SetGlobal("EditInventory", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionEditInventory, L.CheckString(1)))
		return 1
	}))

	// GiveItem("item" [, count]) and TakeItem("item" [, count]) are
	// EditInventory shorthands.
	L.SetGlobal("GiveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionEditInventory, itemParam(L, "")))
		return 1
	}))
	L.SetGlobal("TakeItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionEditInventory, itemParam(L, "-")))
		return 1
	}))

	// Action("type" [, "parameter"])
	L.SetGlobal("Action", L.NewFunction(func(L *lua.LState) int {
		L.Push(actionTable(L, types.ActionType(L.CheckString(1)), L.OptString(2, "")))
		return 1
	}))
}

func predicateTable(L *lua.LState, typ types.PredicateType, params ...string) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString(kindKey, lua.LString(kindPredicate))
	tbl.RawSetString("predicate", lua.LString(typ))
	ps := L.NewTable()
	for _, p := range params {
		ps.Append(lua.LString(p))
	}
	tbl.RawSetString("parameters", ps)
	return tbl
}

func actionTable(L *lua.LState, typ types.ActionType, param string) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString(kindKey, lua.LString(kindAction))
	tbl.RawSetString("action", lua.LString(typ))
	if param != "" {
		tbl.RawSetString("parameter", lua.LString(param))
	}
	return tbl
}

func itemParam(L *lua.LState, prefix string) string {
	param := prefix + L.CheckString(1)
	if L.GetTop() >= 2 {
		param += ":" + strconv.Itoa(L.CheckInt(2))
	}
	return param
}
