package runtime

// adjacency maps a node id to the indexes of its outgoing edges, keeping
// declaration order. Traversal works purely on ids so cyclic graphs never
// form pointer cycles.
type adjacency map[string][]int

func buildAdjacency(flow *Flow) adjacency {
	adj := make(adjacency, len(flow.Nodes))
	for i, e := range flow.Edges {
		adj[e.Source] = append(adj[e.Source], i)
	}
	return adj
}

// ReachableNodes returns the set of node ids reachable from startID by
// forward breadth-first traversal, including startID itself.
func ReachableNodes(startID string, flow *Flow) map[string]bool {
	adj := buildAdjacency(flow)
	reached := map[string]bool{startID: true}
	queue := []string{startID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, ei := range adj[id] {
			target := flow.Edges[ei].Target
			if !reached[target] {
				reached[target] = true
				queue = append(queue, target)
			}
		}
	}
	return reached
}

// CircularPaths finds cycles by depth-first traversal with a recursion
// stack. Each returned path lists the node ids forming one cycle; a
// self-loop yields a single-element path. Cycles are legal in conversation
// flows, so callers report them as warnings, not errors.
func CircularPaths(flow *Flow) [][]string {
	adj := buildAdjacency(flow)
	visited := make(map[string]bool, len(flow.Nodes))
	onStack := make(map[string]bool, len(flow.Nodes))
	stack := make([]string, 0, len(flow.Nodes))
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, ei := range adj[id] {
			target := flow.Edges[ei].Target
			if !visited[target] {
				visit(target)
			} else if onStack[target] {
				for i, n := range stack {
					if n == target {
						cycle := make([]string, len(stack)-i)
						copy(cycle, stack[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false
	}

	for i := range flow.Nodes {
		if !visited[flow.Nodes[i].ID] {
			visit(flow.Nodes[i].ID)
		}
	}
	return cycles
}

// incomingCounts maps node id to the number of edges targeting it.
func incomingCounts(flow *Flow) map[string]int {
	counts := make(map[string]int, len(flow.Nodes))
	for _, e := range flow.Edges {
		counts[e.Target]++
	}
	return counts
}
