package matching

import "math"

// ExactLimit is the largest vertex count solved by the subset DP. Larger
// graphs go to the blossom solver.
const ExactLimit = 20

const epsilon = 1e-9

// EdgeFunc returns the cost of pairing vertices i and j, or ok=false when the
// pair is excluded outright.
type EdgeFunc func(i, j int) (cost float64, ok bool)

// Pair is an unordered pair of vertex indices with I < J.
type Pair struct {
	I, J int
}

type Matching struct {
	Pairs []Pair
	// Unmatched lists vertices left over because no allowed partner remained.
	Unmatched []int
	Cost      float64
}

// Perfect reports whether every vertex was matched.
func (m Matching) Perfect() bool {
	return len(m.Unmatched) == 0
}

type graph struct {
	n    int
	cost [][]float64
	ok   [][]bool
}

func newGraph(n int, edge EdgeFunc) *graph {
	g := &graph{n: n, cost: make([][]float64, n), ok: make([][]bool, n)}
	for i := 0; i < n; i++ {
		g.cost[i] = make([]float64, n)
		g.ok[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c, ok := edge(i, j)
			if ok && (math.IsInf(c, 0) || math.IsNaN(c)) {
				ok = false
			}
			g.cost[i][j], g.cost[j][i] = c, c
			g.ok[i][j], g.ok[j][i] = ok, ok
		}
	}
	return g
}

func (g *graph) dropCost() float64 {
	var maxEdge float64
	for i := 0; i < g.n; i++ {
		for j := i + 1; j < g.n; j++ {
			if g.ok[i][j] {
				maxEdge = math.Max(maxEdge, math.Abs(g.cost[i][j]))
			}
		}
	}
	return (maxEdge+1)*float64(g.n) + 1
}

// PerfectMatching finds a minimum-cost matching of n vertices that leaves as
// few vertices unmatched as possible. The result is a pure function of the
// inputs; up to ExactLimit ties are broken towards pairing lower indices first.
func PerfectMatching(n int, edge EdgeFunc) Matching {
	if n == 0 {
		return Matching{}
	}
	g := newGraph(n, edge)
	if n <= ExactLimit {
		return g.exact()
	}
	return g.blossom()
}

func (g *graph) exact() Matching {
	size := 1 << g.n
	memo := make([]float64, size)
	seen := make([]bool, size)
	choice := make([]int8, size)
	drop := g.dropCost()

	var best func(mask int) float64
	best = func(mask int) float64 {
		if mask == 0 {
			return 0
		}
		if seen[mask] {
			return memo[mask]
		}
		i := lowestBit(mask)
		rest := mask &^ (1 << i)
		bestCost := drop + best(rest)
		bestChoice := int8(-1)
		for j := i + 1; j < g.n; j++ {
			if rest&(1<<j) == 0 || !g.ok[i][j] {
				continue
			}
			c := g.cost[i][j] + best(rest&^(1<<j))
			if c < bestCost-epsilon {
				bestCost = c
				bestChoice = int8(j)
			}
		}
		seen[mask] = true
		memo[mask] = bestCost
		choice[mask] = bestChoice
		return bestCost
	}
	best(size - 1)

	var out Matching
	for mask := size - 1; mask != 0; {
		i := lowestBit(mask)
		mask &^= 1 << i
		j := choice[mask|1<<i]
		if j < 0 {
			out.Unmatched = append(out.Unmatched, i)
			continue
		}
		out.Pairs = append(out.Pairs, Pair{I: i, J: int(j)})
		out.Cost += g.cost[i][j]
		mask &^= 1 << int(j)
	}
	return out
}

func lowestBit(mask int) int {
	i := 0
	for mask&1 == 0 {
		mask >>= 1
		i++
	}
	return i
}
