package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixEdge(m [][]float64) EdgeFunc {
	return func(i, j int) (float64, bool) {
		c := m[i][j]
		if math.IsInf(c, 1) {
			return 0, false
		}
		return c, true
	}
}

func bruteForcePerfect(n int, edge EdgeFunc) (int, float64) {
	bestUnmatched, bestCost := n+1, math.Inf(1)
	used := make([]bool, n)
	var walk func(unmatched int, total float64)
	walk = func(unmatched int, total float64) {
		i := -1
		for k := 0; k < n; k++ {
			if !used[k] {
				i = k
				break
			}
		}
		if i < 0 {
			if unmatched < bestUnmatched || (unmatched == bestUnmatched && total < bestCost-1e-9) {
				bestUnmatched, bestCost = unmatched, total
			}
			return
		}
		used[i] = true
		walk(unmatched+1, total)
		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			c, ok := edge(i, j)
			if !ok {
				continue
			}
			used[j] = true
			walk(unmatched, total+c)
			used[j] = false
		}
		used[i] = false
	}
	walk(0, 0)
	return bestUnmatched, bestCost
}

func TestPerfectMatching_PicksCheapestPairing(t *testing.T) {
	inf := math.Inf(1)
	m := [][]float64{
		{inf, 1, 10, 10},
		{1, inf, 10, 10},
		{10, 10, inf, 2},
		{10, 10, 2, inf},
	}
	got := PerfectMatching(4, matrixEdge(m))

	require.True(t, got.Perfect())
	assert.Equal(t, []Pair{{0, 1}, {2, 3}}, got.Pairs)
	assert.InDelta(t, 3.0, got.Cost, 1e-9)
}

func TestPerfectMatching_RespectsExclusions(t *testing.T) {
	inf := math.Inf(1)
	m := [][]float64{
		{inf, inf, 5, 5},
		{inf, inf, 5, 5},
		{5, 5, inf, 0},
		{5, 5, 0, inf},
	}
	got := PerfectMatching(4, matrixEdge(m))

	require.True(t, got.Perfect())
	for _, p := range got.Pairs {
		assert.False(t, p.I == 0 && p.J == 1, "excluded pair 0-1 was matched")
	}
	assert.InDelta(t, 10.0, got.Cost, 1e-9)
}

func TestPerfectMatching_ReportsUnmatched(t *testing.T) {
	// Vertex 3 may not meet anyone.
	edge := func(i, j int) (float64, bool) {
		if i == 3 || j == 3 {
			return 0, false
		}
		return 1, true
	}
	got := PerfectMatching(4, edge)

	assert.False(t, got.Perfect())
	assert.Len(t, got.Pairs, 1)
	assert.Len(t, got.Unmatched, 2)
	assert.Contains(t, got.Unmatched, 3)
}

func TestPerfectMatching_Deterministic(t *testing.T) {
	edge := func(i, j int) (float64, bool) { return 0, true }
	first := PerfectMatching(8, edge)
	second := PerfectMatching(8, edge)
	assert.Equal(t, first, second)
	assert.Equal(t, []Pair{{0, 1}, {2, 3}, {4, 5}, {6, 7}}, first.Pairs)
}

func lcg(seed uint32) func() uint32 {
	return func() uint32 {
		seed = seed*1103515245 + 12345
		return seed >> 8
	}
}

// assertValid checks that m uses allowed edges only and places every vertex once.
func assertValid(t *testing.T, n int, edge EdgeFunc, m Matching) {
	t.Helper()
	seen := make(map[int]bool, n)
	for _, p := range m.Pairs {
		_, ok := edge(p.I, p.J)
		require.True(t, ok, "excluded pair %v matched", p)
		require.Less(t, p.I, p.J)
		require.False(t, seen[p.I] || seen[p.J], "vertex reused in %v", p)
		seen[p.I], seen[p.J] = true, true
	}
	for _, v := range m.Unmatched {
		require.False(t, seen[v], "vertex %d both matched and unmatched", v)
		seen[v] = true
	}
	require.Len(t, seen, n)
}

// planted returns a sparse graph on n vertices that contains a perfect
// matching: a shuffled pairing of all vertices plus a few extra edges.
func planted(n int, next func() uint32, extra uint32) EdgeFunc {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(next() % uint32(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = math.Inf(1)
		}
	}
	for k := 0; k+1 < n; k += 2 {
		a, b := perm[k], perm[k+1]
		c := float64(next() % 20)
		m[a][b], m[b][a] = c, c
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.IsInf(m[i][j], 1) && next()%100 < extra {
				c := float64(next() % 20)
				m[i][j], m[j][i] = c, c
			}
		}
	}
	return matrixEdge(m)
}

func TestPerfectMatching_MatchesBruteForce(t *testing.T) {
	next := lcg(42)
	for trial := 0; trial < 100; trial++ {
		n := int(next()%4)*2 + 2
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				c := float64(next() % 15)
				if next()%4 == 0 {
					c = math.Inf(1)
				}
				m[i][j], m[j][i] = c, c
			}
		}
		wantUnmatched, wantCost := bruteForcePerfect(n, matrixEdge(m))
		got := PerfectMatching(n, matrixEdge(m))
		require.Len(t, got.Unmatched, wantUnmatched, "trial %d", trial)
		require.InDelta(t, wantCost, got.Cost, 1e-6, "trial %d", trial)
	}
}

func TestBlossom_MatchesExact(t *testing.T) {
	next := lcg(7)
	for trial := 0; trial < 300; trial++ {
		n := int(next()%13) + 2
		density := next()%70 + 20
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				c := float64(next() % 25)
				if next()%100 >= density {
					c = math.Inf(1)
				}
				m[i][j], m[j][i] = c, c
			}
		}
		g := newGraph(n, matrixEdge(m))
		want := g.exact()
		got := g.blossom()

		assertValid(t, n, matrixEdge(m), got)
		require.Len(t, got.Unmatched, len(want.Unmatched), "trial %d (n=%d)", trial, n)
		require.InDelta(t, want.Cost, got.Cost, 1e-6, "trial %d (n=%d)", trial, n)
	}
}

func TestBlossom_FractionalCosts(t *testing.T) {
	// 0-1 + 2-3 costs 0.5; 0-2 + 1-3 costs 0.75.
	m := [][]float64{
		{0, 0.25, 0.5, 9},
		{0.25, 0, 9, 0.25},
		{0.5, 9, 0, 0.25},
		{9, 0.25, 0.25, 0},
	}
	got := newGraph(4, matrixEdge(m)).blossom()

	require.True(t, got.Perfect())
	assert.InDelta(t, 0.5, got.Cost, 1e-9)
}

func TestPerfectMatching_SparseLargeGraphsStayPerfect(t *testing.T) {
	next := lcg(2024)
	for trial := 0; trial < 60; trial++ {
		n := 22 + 2*int(next()%10)
		edge := planted(n, next, 8)
		got := PerfectMatching(n, edge)

		assertValid(t, n, edge, got)
		require.True(t, got.Perfect(), "trial %d (n=%d): unmatched %v", trial, n, got.Unmatched)
	}
}

func TestPerfectMatching_LargeGraphIsOptimal(t *testing.T) {
	next := lcg(99)
	for trial := 0; trial < 3; trial++ {
		n := 22
		edge := planted(n, next, 8)
		want := newGraph(n, edge).exact()
		got := PerfectMatching(n, edge)

		require.True(t, got.Perfect(), "trial %d", trial)
		require.InDelta(t, want.Cost, got.Cost, 1e-6, "trial %d", trial)
	}
}

func TestPerfectMatching_LargeOddGraphLeavesOneVertex(t *testing.T) {
	n := 27
	// Even vertices may only meet odd ones; vertex 26 has no odd partner left.
	edge := func(i, j int) (float64, bool) {
		if (i+j)%2 == 0 {
			return 0, false
		}
		return math.Abs(float64(i - j)), true
	}
	got := PerfectMatching(n, edge)

	assertValid(t, n, edge, got)
	assert.Len(t, got.Unmatched, 1)
	assert.Len(t, got.Pairs, 13)
	assert.InDelta(t, 13.0, got.Cost, 1e-9)
}
