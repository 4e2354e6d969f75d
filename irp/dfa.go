package irp

// DFA is the decode automaton after epsilon-contraction: every vertex
// reachable only through unconditional (EdgeEmpty) transitions from
// some other vertex has been folded away, so the matcher's frontier
// only ever rests on vertices that are either the start state or
// directly reachable by consuming a Flash or Gap.
//
// This does not perform full NFA subset construction across divergent
// decode paths (see DESIGN.md); it contracts the straight-line epsilon
// chains the builder produces for assignments and completed bit-fields,
// which is what every stock IRP protocol's bit-spec shape needs.
type DFA struct {
	Verts []Vertex
}

// BuildDFA contracts n's unconditional edges into the vertices that
// consume them.
func BuildDFA(n *NFA) (*DFA, error) {
	verts := make([]Vertex, len(n.Verts))
	copy(verts, n.Verts)

	for i := range verts {
		verts[i].Edges = contractEdges(n, verts[i].Edges, map[int]bool{i: true})
	}

	return &DFA{Verts: verts}, nil
}

// contractEdges replaces any edge landing on a vertex whose only
// outgoing transition is a bare EdgeEmpty (no repeat, no guard) with
// that transition's own destination, splicing in the intermediate
// vertex's Entry and the edge's Run actions in order. visited guards
// against an (illegal, but defensively handled) epsilon cycle.
func contractEdges(n *NFA, edges []Edge, visited map[int]bool) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, contractOne(n, e, visited))
	}
	return out
}

func contractOne(n *NFA, e Edge, visited map[int]bool) Edge {
	if visited[e.Dest] {
		return e
	}
	dest := n.Verts[e.Dest]
	if len(dest.Edges) != 1 || dest.Edges[0].Kind != EdgeEmpty {
		// dest branches (bit-spec choice, repeat join) or terminates: it
		// must remain a real vertex the matcher can rest its frontier on.
		return e
	}

	nextVisited := map[int]bool{e.Dest: true}
	for k := range visited {
		nextVisited[k] = true
	}
	inner := contractOne(n, dest.Edges[0], nextVisited)

	run := make([]Action, 0, len(e.Run)+len(dest.Entry)+len(inner.Run))
	run = append(run, e.Run...)
	run = append(run, dest.Entry...)
	run = append(run, inner.Run...)

	return Edge{Dest: inner.Dest, Kind: e.Kind, Guard: e.Guard, Run: run}
}
