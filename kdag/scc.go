package kdag

// findCycles runs Tarjan's strongly connected components algorithm over the
// given graph and returns every cycle: each component with more than one
// member, and each node with an edge to itself. Nodes are visited in the
// given order; members of a component are listed in the order they are
// popped off the traversal stack.
//
// All traversal state lives in a tarjan value owned by this call.
func findCycles(nodes []string, edges map[string][]string) [][]string {
	t := &tarjan{
		edges:   edges,
		index:   make(map[string]int, len(nodes)),
		lowlink: make(map[string]int, len(nodes)),
		onStack: make(map[string]bool, len(nodes)),
	}
	for _, n := range nodes {
		if _, visited := t.index[n]; !visited {
			t.strongConnect(n)
		}
	}
	return t.cycles
}

type tarjan struct {
	edges map[string][]string

	next    int
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string

	cycles [][]string
}

func (t *tarjan) strongConnect(n string) {
	t.index[n] = t.next
	t.lowlink[n] = t.next
	t.next++
	t.stack = append(t.stack, n)
	t.onStack[n] = true

	selfLoop := false
	for _, succ := range t.edges[n] {
		if succ == n && !selfLoop {
			selfLoop = true
			t.cycles = append(t.cycles, []string{n})
		}
		if _, visited := t.index[succ]; !visited {
			t.strongConnect(succ)
			t.lowlink[n] = min(t.lowlink[n], t.lowlink[succ])
		} else if t.onStack[succ] {
			t.lowlink[n] = min(t.lowlink[n], t.index[succ])
		}
	}

	if t.lowlink[n] != t.index[n] {
		return
	}

	var component []string
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		component = append(component, top)
		if top == n {
			break
		}
	}
	if len(component) > 1 {
		t.cycles = append(t.cycles, component)
	}
}
