// Package matching holds the combinatorial solvers shared by the draw and the
// judge allocator: a Hungarian assignment solver and a minimum-cost perfect
// matching over a general graph.
package matching

import "math"

// Forbidden marks a cell that must never be chosen.
var Forbidden = math.Inf(1)

// Assignment is the output of Hungarian. Rows[i] is the column given to row i,
// or -1 when the row could not be placed on an allowed cell.
type Assignment struct {
	Rows     []int
	Cost     float64
	Assigned int
}

// Hungarian solves the rectangular assignment problem. It maximizes the number
// of rows placed on allowed cells first and minimizes the total cost second.
// The primal-dual formulation runs in O(n^2 m) for n <= m.
func Hungarian(cost [][]float64) Assignment {
	rows := len(cost)
	if rows == 0 {
		return Assignment{}
	}
	cols := len(cost[0])
	out := Assignment{Rows: make([]int, rows)}
	for i := range out.Rows {
		out.Rows[i] = -1
	}
	if cols == 0 {
		return out
	}

	big := forbiddenWeight(cost)
	transposed := rows > cols
	n, m := rows, cols
	if transposed {
		n, m = cols, rows
	}
	a := make([][]float64, n+1)
	for i := 1; i <= n; i++ {
		a[i] = make([]float64, m+1)
		for j := 1; j <= m; j++ {
			c := cell(cost, i-1, j-1, transposed)
			if math.IsInf(c, 1) || math.IsNaN(c) {
				c = big
			}
			a[i][j] = c
		}
	}

	p := solve(a, n, m)

	for j := 1; j <= m; j++ {
		if p[j] == 0 {
			continue
		}
		r, c := p[j]-1, j-1
		if transposed {
			r, c = c, r
		}
		v := cost[r][c]
		if math.IsInf(v, 1) || math.IsNaN(v) {
			continue
		}
		out.Rows[r] = c
		out.Cost += v
		out.Assigned++
	}
	return out
}

func cell(cost [][]float64, i, j int, transposed bool) float64 {
	if transposed {
		return cost[j][i]
	}
	return cost[i][j]
}

// forbiddenWeight is larger than any sum of allowed cells, so trading one
// forbidden cell for any number of allowed ones is always an improvement.
func forbiddenWeight(cost [][]float64) float64 {
	var maxAbs float64
	cells := 0
	for _, row := range cost {
		for _, c := range row {
			cells++
			if math.IsInf(c, 0) || math.IsNaN(c) {
				continue
			}
			maxAbs = math.Max(maxAbs, math.Abs(c))
		}
	}
	return (maxAbs + 1) * float64(cells+1)
}

// solve is the 1-indexed potential-based Hungarian method. p[j] is the row
// matched to column j.
func solve(a [][]float64, n, m int) []int {
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1)
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := a[i0][j] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}
	return p
}
