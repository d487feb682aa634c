package xlcalc

import "sort"

// dependencyGraph is an arena of cell nodes addressed by int IDs. An edge
// runs from a precedent (a cell that is read) to a dependent formula cell.
// Edges of a dependent are derived entirely from its current formula and
// are replaced as a unit.
type dependencyGraph struct {
	ids  map[CellKey]int
	keys []CellKey
	live []bool
	free []int

	precedents []map[int]struct{} // node -> nodes it reads
	dependents []map[int]struct{} // node -> nodes that read it

	// sheet name -> formula nodes whose references name that sheet
	sheetRefs  map[string]map[int]struct{}
	nodeSheets []map[string]struct{}
}

func newDependencyGraph() *dependencyGraph {
	return &dependencyGraph{
		ids:       make(map[CellKey]int),
		sheetRefs: make(map[string]map[int]struct{}),
	}
}

// node returns the ID for key, allocating one if needed.
func (g *dependencyGraph) node(key CellKey) int {
	if id, ok := g.ids[key]; ok {
		return id
	}

	var id int
	if n := len(g.free); n > 0 {
		id = g.free[n-1]
		g.free = g.free[:n-1]
		g.keys[id] = key
		g.live[id] = true
	} else {
		id = len(g.keys)
		g.keys = append(g.keys, key)
		g.live = append(g.live, true)
		g.precedents = append(g.precedents, nil)
		g.dependents = append(g.dependents, nil)
		g.nodeSheets = append(g.nodeSheets, nil)
	}
	g.ids[key] = id
	return id
}

// lookup returns the ID for key without allocating.
func (g *dependencyGraph) lookup(key CellKey) (int, bool) {
	id, ok := g.ids[key]
	return id, ok
}

func (g *dependencyGraph) key(id int) CellKey {
	return g.keys[id]
}

// setEdges replaces every edge owned by id with edges from precedents, and
// records which sheet names its formula mentions.
func (g *dependencyGraph) setEdges(id int, precedents []int, sheets []string) {
	g.clearEdges(id)

	if len(precedents) > 0 {
		g.precedents[id] = make(map[int]struct{}, len(precedents))
	}
	for _, p := range precedents {
		g.precedents[id][p] = struct{}{}
		if g.dependents[p] == nil {
			g.dependents[p] = make(map[int]struct{})
		}
		g.dependents[p][id] = struct{}{}
	}

	if len(sheets) > 0 {
		g.nodeSheets[id] = make(map[string]struct{}, len(sheets))
	}
	for _, name := range sheets {
		g.nodeSheets[id][name] = struct{}{}
		if g.sheetRefs[name] == nil {
			g.sheetRefs[name] = make(map[int]struct{})
		}
		g.sheetRefs[name][id] = struct{}{}
	}
}

// clearEdges removes every edge owned by id. Edges where id is the
// precedent of another formula are left alone.
func (g *dependencyGraph) clearEdges(id int) {
	for p := range g.precedents[id] {
		delete(g.dependents[p], id)
		if len(g.dependents[p]) == 0 {
			g.dependents[p] = nil
		}
	}
	g.precedents[id] = nil

	for name := range g.nodeSheets[id] {
		delete(g.sheetRefs[name], id)
		if len(g.sheetRefs[name]) == 0 {
			delete(g.sheetRefs, name)
		}
	}
	g.nodeSheets[id] = nil
}

// release drops a node that owns no edges and is read by nobody.
func (g *dependencyGraph) release(id int) bool {
	if !g.live[id] || len(g.precedents[id]) > 0 || len(g.dependents[id]) > 0 || len(g.nodeSheets[id]) > 0 {
		return false
	}
	delete(g.ids, g.keys[id])
	g.keys[id] = CellKey{}
	g.live[id] = false
	g.free = append(g.free, id)
	return true
}

// sheetNodes returns the live nodes on sheet.
func (g *dependencyGraph) sheetNodes(sheet string) []int {
	var out []int
	for key, id := range g.ids {
		if key.Sheet == sheet {
			out = append(out, id)
		}
	}
	g.sortIDs(out)
	return out
}

// referencing returns the formula nodes that mention sheet by name.
func (g *dependencyGraph) referencing(sheet string) []int {
	out := make([]int, 0, len(g.sheetRefs[sheet]))
	for id := range g.sheetRefs[sheet] {
		out = append(out, id)
	}
	g.sortIDs(out)
	return out
}

// renameSheet re-keys every node on sheet from into sheet to.
func (g *dependencyGraph) renameSheet(from, to string) {
	for _, id := range g.sheetNodes(from) {
		delete(g.ids, g.keys[id])
		g.keys[id].Sheet = to
		g.ids[g.keys[id]] = id
	}
}

func (g *dependencyGraph) directPrecedents(id int) []int {
	return g.sortedSet(g.precedents[id])
}

func (g *dependencyGraph) directDependents(id int) []int {
	return g.sortedSet(g.dependents[id])
}

func (g *dependencyGraph) hasEdge(from, to int) bool {
	_, ok := g.dependents[from][to]
	return ok
}

// closure returns seeds plus all their transitive dependents.
func (g *dependencyGraph) closure(seeds []int) map[int]struct{} {
	seen := make(map[int]struct{}, len(seeds))
	queue := append([]int(nil), seeds...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		for d := range g.dependents[id] {
			if _, ok := seen[d]; !ok {
				queue = append(queue, d)
			}
		}
	}
	return seen
}

// component is a strongly-connected set of nodes.
type component struct {
	nodes  []int
	cyclic bool
}

// components returns the strongly-connected components of the subgraph
// induced by set, precedents first. A component is cyclic when it holds
// more than one node or a node that reads itself.
func (g *dependencyGraph) components(set map[int]struct{}) []component {
	var (
		counter int
		index   = make(map[int]int, len(set))
		lowlink = make(map[int]int, len(set))
		onStack = make(map[int]bool, len(set))
		stack   []int
		out     []component
	)

	var connect func(v int)
	connect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.directDependents(v) {
			if _, in := set[w]; !in {
				continue
			}
			if _, visited := index[w]; !visited {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		}

		if lowlink[v] != index[v] {
			return
		}
		var comp component
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp.nodes = append(comp.nodes, w)
			if w == v {
				break
			}
		}
		g.sortIDs(comp.nodes)
		comp.cyclic = len(comp.nodes) > 1 || g.hasEdge(v, v)
		out = append(out, comp)
	}

	for _, v := range g.sortedSet(set) {
		if _, visited := index[v]; !visited {
			connect(v)
		}
	}

	// Tarjan emits components in reverse topological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (g *dependencyGraph) sortedSet(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	g.sortIDs(out)
	return out
}

// sortIDs orders node IDs by sheet name, then row-major cell position.
func (g *dependencyGraph) sortIDs(ids []int) {
	sort.Slice(ids, func(i, j int) bool {
		return g.keys[ids[i]].less(g.keys[ids[j]])
	})
}

// nodeCount returns the number of live nodes.
func (g *dependencyGraph) nodeCount() int {
	return len(g.ids)
}
