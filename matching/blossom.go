package matching

import "math"

// costScale turns float costs into integer weights so the dual updates of the
// blossom solver stay exact.
const costScale = 1e6

type weightedEdge struct {
	i, j int
	w    int64
}

// blossom finds a maximum-cardinality matching of minimum total cost with
// Edmonds' weighted blossom algorithm in O(n³). Costs are turned into weights
// as (top + 1 - cost), so among matchings of maximum cardinality the heaviest
// is the cheapest.
func (g *graph) blossom() Matching {
	var edges []weightedEdge
	var top int64
	for i := 0; i < g.n; i++ {
		for j := i + 1; j < g.n; j++ {
			if !g.ok[i][j] {
				continue
			}
			c := int64(math.Round(g.cost[i][j] * costScale))
			edges = append(edges, weightedEdge{i: i, j: j, w: c})
			top = max(top, c)
		}
	}
	for k := range edges {
		edges[k].w = top + 1 - edges[k].w
	}

	mate := newBlossomSolver(g.n, edges).solve()

	var out Matching
	for v, u := range mate {
		switch {
		case u < 0:
			out.Unmatched = append(out.Unmatched, v)
		case v < u:
			out.Pairs = append(out.Pairs, Pair{I: v, J: u})
			out.Cost += g.cost[v][u]
		}
	}
	return out
}

// blossomSolver holds the state of one maximum-weight matching run. Edge k
// has endpoints 2k and 2k+1; vertices are 0..n-1 and blossoms n..2n-1.
// Labels: 0 free, 1 outer (S), 2 inner (T).
type blossomSolver struct {
	n         int
	edges     []weightedEdge
	endpoint  []int
	neighbend [][]int

	mate      []int
	label     []int
	labelEnd  []int
	inBlossom []int
	parent    []int
	children  [][]int
	base      []int
	endps     [][]int
	bestEdge  []int
	bestEdges [][]int
	unused    []int
	dual      []int64
	allowed   []bool
	queue     []int
}

func newBlossomSolver(n int, edges []weightedEdge) *blossomSolver {
	s := &blossomSolver{
		n:         n,
		edges:     edges,
		endpoint:  make([]int, 2*len(edges)),
		neighbend: make([][]int, n),
		mate:      make([]int, n),
		label:     make([]int, 2*n),
		labelEnd:  make([]int, 2*n),
		inBlossom: make([]int, n),
		parent:    make([]int, 2*n),
		children:  make([][]int, 2*n),
		base:      make([]int, 2*n),
		endps:     make([][]int, 2*n),
		bestEdge:  make([]int, 2*n),
		bestEdges: make([][]int, 2*n),
		unused:    make([]int, 0, n),
		dual:      make([]int64, 2*n),
		allowed:   make([]bool, len(edges)),
	}

	var maxWeight int64
	for k, e := range edges {
		s.endpoint[2*k], s.endpoint[2*k+1] = e.i, e.j
		s.neighbend[e.i] = append(s.neighbend[e.i], 2*k+1)
		s.neighbend[e.j] = append(s.neighbend[e.j], 2*k)
		maxWeight = max(maxWeight, e.w)
	}
	for v := 0; v < 2*n; v++ {
		s.labelEnd[v] = -1
		s.parent[v] = -1
		s.base[v] = -1
		s.bestEdge[v] = -1
	}
	for v := 0; v < n; v++ {
		s.mate[v] = -1
		s.inBlossom[v] = v
		s.base[v] = v
		s.dual[v] = maxWeight
		s.unused = append(s.unused, n+v)
	}
	return s
}

func (s *blossomSolver) slack(k int) int64 {
	e := s.edges[k]
	return s.dual[e.i] + s.dual[e.j] - 2*e.w
}

func (s *blossomSolver) leaves(b int, out []int) []int {
	if b < s.n {
		return append(out, b)
	}
	for _, t := range s.children[b] {
		if t < s.n {
			out = append(out, t)
		} else {
			out = s.leaves(t, out)
		}
	}
	return out
}

// at indexes a cyclic child list, allowing negative positions.
func at(list []int, i int) int {
	if i < 0 {
		i += len(list)
	}
	return list[i]
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

func rotate(list []int, i int) []int {
	out := make([]int, 0, len(list))
	out = append(out, list[i:]...)
	return append(out, list[:i]...)
}

func (s *blossomSolver) assignLabel(w, t, p int) {
	b := s.inBlossom[w]
	s.label[w], s.label[b] = t, t
	s.labelEnd[w], s.labelEnd[b] = p, p
	s.bestEdge[w], s.bestEdge[b] = -1, -1
	switch t {
	case 1:
		s.queue = s.leaves(b, s.queue)
	case 2:
		base := s.base[b]
		s.assignLabel(s.endpoint[s.mate[base]], 1, s.mate[base]^1)
	}
}

// scanBlossom traces back from v and w to find a new blossom. It returns the
// base vertex of that blossom, or -1 when the trace found an augmenting path.
func (s *blossomSolver) scanBlossom(v, w int) int {
	var path []int
	base := -1
	for v != -1 || w != -1 {
		b := s.inBlossom[v]
		if s.label[b]&4 != 0 {
			base = s.base[b]
			break
		}
		path = append(path, b)
		s.label[b] = 5
		if s.labelEnd[b] == -1 {
			v = -1
		} else {
			v = s.endpoint[s.labelEnd[b]]
			b = s.inBlossom[v]
			v = s.endpoint[s.labelEnd[b]]
		}
		if w != -1 {
			v, w = w, v
		}
	}
	for _, b := range path {
		s.label[b] = 1
	}
	return base
}

func (s *blossomSolver) addBlossom(base, k int) {
	v, w := s.edges[k].i, s.edges[k].j
	bb := s.inBlossom[base]
	bv := s.inBlossom[v]
	bw := s.inBlossom[w]

	b := s.unused[len(s.unused)-1]
	s.unused = s.unused[:len(s.unused)-1]
	s.base[b] = base
	s.parent[b] = -1
	s.parent[bb] = b

	var path, endps []int
	for bv != bb {
		s.parent[bv] = b
		path = append(path, bv)
		endps = append(endps, s.labelEnd[bv])
		v = s.endpoint[s.labelEnd[bv]]
		bv = s.inBlossom[v]
	}
	path = append(path, bb)
	reverse(path)
	reverse(endps)
	endps = append(endps, 2*k)
	for bw != bb {
		s.parent[bw] = b
		path = append(path, bw)
		endps = append(endps, s.labelEnd[bw]^1)
		w = s.endpoint[s.labelEnd[bw]]
		bw = s.inBlossom[w]
	}
	s.children[b] = path
	s.endps[b] = endps

	s.label[b] = 1
	s.labelEnd[b] = s.labelEnd[bb]
	s.dual[b] = 0
	for _, leaf := range s.leaves(b, nil) {
		if s.label[s.inBlossom[leaf]] == 2 {
			s.queue = append(s.queue, leaf)
		}
		s.inBlossom[leaf] = b
	}

	bestTo := make([]int, 2*s.n)
	for i := range bestTo {
		bestTo[i] = -1
	}
	for _, child := range path {
		var lists [][]int
		if s.bestEdges[child] == nil {
			for _, leaf := range s.leaves(child, nil) {
				list := make([]int, len(s.neighbend[leaf]))
				for x, p := range s.neighbend[leaf] {
					list[x] = p / 2
				}
				lists = append(lists, list)
			}
		} else {
			lists = [][]int{s.bestEdges[child]}
		}
		for _, list := range lists {
			for _, e := range list {
				j := s.edges[e].j
				if s.inBlossom[j] == b {
					j = s.edges[e].i
				}
				bj := s.inBlossom[j]
				if bj != b && s.label[bj] == 1 && (bestTo[bj] == -1 || s.slack(e) < s.slack(bestTo[bj])) {
					bestTo[bj] = e
				}
			}
		}
		s.bestEdges[child] = nil
		s.bestEdge[child] = -1
	}

	best := make([]int, 0)
	for _, e := range bestTo {
		if e != -1 {
			best = append(best, e)
		}
	}
	s.bestEdges[b] = best
	s.bestEdge[b] = -1
	for _, e := range best {
		if s.bestEdge[b] == -1 || s.slack(e) < s.slack(s.bestEdge[b]) {
			s.bestEdge[b] = e
		}
	}
}

func (s *blossomSolver) expandBlossom(b int, endStage bool) {
	for _, child := range s.children[b] {
		s.parent[child] = -1
		switch {
		case child < s.n:
			s.inBlossom[child] = child
		case endStage && s.dual[child] == 0:
			s.expandBlossom(child, endStage)
		default:
			for _, leaf := range s.leaves(child, nil) {
				s.inBlossom[leaf] = child
			}
		}
	}

	if !endStage && s.label[b] == 2 {
		children, endps := s.children[b], s.endps[b]
		entry := s.inBlossom[s.endpoint[s.labelEnd[b]^1]]
		j := indexOf(children, entry)
		step, trick := -1, 1
		if j&1 != 0 {
			j -= len(children)
			step, trick = 1, 0
		}
		p := s.labelEnd[b]
		for j != 0 {
			s.label[s.endpoint[p^1]] = 0
			s.label[s.endpoint[at(endps, j-trick)^trick^1]] = 0
			s.assignLabel(s.endpoint[p^1], 2, p)
			s.allowed[at(endps, j-trick)/2] = true
			j += step
			p = at(endps, j-trick) ^ trick
			s.allowed[p/2] = true
			j += step
		}
		bv := at(children, j)
		s.label[s.endpoint[p^1]], s.label[bv] = 2, 2
		s.labelEnd[s.endpoint[p^1]], s.labelEnd[bv] = p, p
		s.bestEdge[bv] = -1
		j += step
		for at(children, j) != entry {
			bv = at(children, j)
			if s.label[bv] == 1 {
				j += step
				continue
			}
			labelled := -1
			for _, leaf := range s.leaves(bv, nil) {
				if s.label[leaf] != 0 {
					labelled = leaf
					break
				}
			}
			if labelled >= 0 {
				s.label[labelled] = 0
				s.label[s.endpoint[s.mate[s.base[bv]]]] = 0
				s.assignLabel(labelled, 2, s.labelEnd[labelled])
			}
			j += step
		}
	}

	s.label[b], s.labelEnd[b] = -1, -1
	s.children[b], s.endps[b] = nil, nil
	s.base[b] = -1
	s.bestEdges[b] = nil
	s.bestEdge[b] = -1
	s.unused = append(s.unused, b)
}

// augmentBlossom flips the matched edges along the even path from v to the
// base of b, so that v becomes the new base.
func (s *blossomSolver) augmentBlossom(b, v int) {
	t := v
	for s.parent[t] != b {
		t = s.parent[t]
	}
	if t >= s.n {
		s.augmentBlossom(t, v)
	}
	children, endps := s.children[b], s.endps[b]
	i := indexOf(children, t)
	j := i
	step, trick := -1, 1
	if i&1 != 0 {
		j -= len(children)
		step, trick = 1, 0
	}
	for j != 0 {
		j += step
		t = at(children, j)
		p := at(endps, j-trick) ^ trick
		if t >= s.n {
			s.augmentBlossom(t, s.endpoint[p])
		}
		j += step
		t = at(children, j)
		if t >= s.n {
			s.augmentBlossom(t, s.endpoint[p^1])
		}
		s.mate[s.endpoint[p]] = p ^ 1
		s.mate[s.endpoint[p^1]] = p
	}
	s.children[b] = rotate(children, i)
	s.endps[b] = rotate(endps, i)
	s.base[b] = s.base[s.children[b][0]]
}

func (s *blossomSolver) augmentMatching(k int) {
	e := s.edges[k]
	for _, start := range [2][2]int{{e.i, 2*k + 1}, {e.j, 2 * k}} {
		v, p := start[0], start[1]
		for {
			bs := s.inBlossom[v]
			if bs >= s.n {
				s.augmentBlossom(bs, v)
			}
			s.mate[v] = p
			if s.labelEnd[bs] == -1 {
				break
			}
			t := s.endpoint[s.labelEnd[bs]]
			bt := s.inBlossom[t]
			v = s.endpoint[s.labelEnd[bt]]
			j := s.endpoint[s.labelEnd[bt]^1]
			if bt >= s.n {
				s.augmentBlossom(bt, j)
			}
			s.mate[j] = s.labelEnd[bt]
			p = s.labelEnd[bt] ^ 1
		}
	}
}

// solve runs one stage per augmentation and returns the partner of every
// vertex, or -1. Only maximum-cardinality matchings are considered.
func (s *blossomSolver) solve() []int {
	for stage := 0; stage < s.n; stage++ {
		for i := range s.label {
			s.label[i] = 0
			s.bestEdge[i] = -1
		}
		for b := s.n; b < 2*s.n; b++ {
			s.bestEdges[b] = nil
		}
		for k := range s.allowed {
			s.allowed[k] = false
		}
		s.queue = s.queue[:0]

		for v := 0; v < s.n; v++ {
			if s.mate[v] == -1 && s.label[s.inBlossom[v]] == 0 {
				s.assignLabel(v, 1, -1)
			}
		}

		augmented := false
		for {
			for len(s.queue) > 0 && !augmented {
				v := s.queue[len(s.queue)-1]
				s.queue = s.queue[:len(s.queue)-1]

				for _, p := range s.neighbend[v] {
					k := p / 2
					w := s.endpoint[p]
					if s.inBlossom[v] == s.inBlossom[w] {
						continue
					}
					var kslack int64
					if !s.allowed[k] {
						kslack = s.slack(k)
						if kslack <= 0 {
							s.allowed[k] = true
						}
					}
					if s.allowed[k] {
						switch {
						case s.label[s.inBlossom[w]] == 0:
							s.assignLabel(w, 2, p^1)
						case s.label[s.inBlossom[w]] == 1:
							if base := s.scanBlossom(v, w); base >= 0 {
								s.addBlossom(base, k)
							} else {
								s.augmentMatching(k)
								augmented = true
							}
						case s.label[w] == 0:
							s.label[w] = 2
							s.labelEnd[w] = p ^ 1
						}
						if augmented {
							break
						}
					} else if s.label[s.inBlossom[w]] == 1 {
						b := s.inBlossom[v]
						if s.bestEdge[b] == -1 || kslack < s.slack(s.bestEdge[b]) {
							s.bestEdge[b] = k
						}
					} else if s.label[w] == 0 {
						if s.bestEdge[w] == -1 || kslack < s.slack(s.bestEdge[w]) {
							s.bestEdge[w] = k
						}
					}
				}
			}
			if augmented {
				break
			}

			deltaType := -1
			var delta int64
			deltaEdge, deltaBlossom := -1, -1
			for v := 0; v < s.n; v++ {
				if s.label[s.inBlossom[v]] == 0 && s.bestEdge[v] != -1 {
					if d := s.slack(s.bestEdge[v]); deltaType == -1 || d < delta {
						delta, deltaType, deltaEdge = d, 2, s.bestEdge[v]
					}
				}
			}
			for b := 0; b < 2*s.n; b++ {
				if s.parent[b] == -1 && s.label[b] == 1 && s.bestEdge[b] != -1 {
					if d := s.slack(s.bestEdge[b]) / 2; deltaType == -1 || d < delta {
						delta, deltaType, deltaEdge = d, 3, s.bestEdge[b]
					}
				}
			}
			for b := s.n; b < 2*s.n; b++ {
				if s.base[b] >= 0 && s.parent[b] == -1 && s.label[b] == 2 && (deltaType == -1 || s.dual[b] < delta) {
					delta, deltaType, deltaBlossom = s.dual[b], 4, b
				}
			}
			if deltaType == -1 {
				// No further improvement possible; the matching is maximum.
				deltaType = 1
				delta = s.dual[0]
				for v := 1; v < s.n; v++ {
					delta = min(delta, s.dual[v])
				}
				delta = max(0, delta)
			}

			for v := 0; v < s.n; v++ {
				switch s.label[s.inBlossom[v]] {
				case 1:
					s.dual[v] -= delta
				case 2:
					s.dual[v] += delta
				}
			}
			for b := s.n; b < 2*s.n; b++ {
				if s.base[b] >= 0 && s.parent[b] == -1 {
					switch s.label[b] {
					case 1:
						s.dual[b] += delta
					case 2:
						s.dual[b] -= delta
					}
				}
			}

			if deltaType == 1 {
				break
			}
			switch deltaType {
			case 2:
				s.allowed[deltaEdge] = true
				i, j := s.edges[deltaEdge].i, s.edges[deltaEdge].j
				if s.label[s.inBlossom[i]] == 0 {
					i = j
				}
				s.queue = append(s.queue, i)
			case 3:
				s.allowed[deltaEdge] = true
				s.queue = append(s.queue, s.edges[deltaEdge].i)
			case 4:
				s.expandBlossom(deltaBlossom, false)
			}
		}

		if !augmented {
			break
		}
		for b := s.n; b < 2*s.n; b++ {
			if s.parent[b] == -1 && s.base[b] >= 0 && s.label[b] == 1 && s.dual[b] == 0 {
				s.expandBlossom(b, true)
			}
		}
	}

	out := make([]int, s.n)
	for v := range out {
		out[v] = -1
		if s.mate[v] >= 0 {
			out[v] = s.endpoint[s.mate[v]]
		}
	}
	return out
}

func reverse(list []int) {
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
}
