// Package regression fits least-squares polynomials to point sets.
package regression

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// singularEpsilon is the smallest |det| of the normal equations accepted as
// solvable.
const singularEpsilon = 1e-10

var (
	// ErrTooFewPoints is returned when fewer than three points are given.
	ErrTooFewPoints = errors.New("quadratic fit needs at least 3 points")
	// ErrSingular is returned when the normal equations are (nearly)
	// singular, e.g. every point shares the same x.
	ErrSingular = errors.New("quadratic fit: singular system")
)

// Point is one (x, y) observation.
type Point struct {
	X, Y float64
}

// Quadratic is y = A·x² + B·x + C fitted over N points.
type Quadratic struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	N int     `json:"n"`
}

// Predict evaluates the fitted polynomial at x.
func (q *Quadratic) Predict(x float64) float64 {
	return q.A*x*x + q.B*x + q.C
}

func (q *Quadratic) String() string {
	return fmt.Sprintf("y = %s·x² %s·x %s", fmtCoef(q.A, true), fmtCoef(q.B, false), fmtCoef(q.C, false))
}

func fmtCoef(v float64, lead bool) string {
	s := strconv.FormatFloat(math.Abs(v), 'g', 4, 64)
	switch {
	case lead && v < 0:
		return "-" + s
	case lead:
		return s
	case v < 0:
		return "- " + s
	default:
		return "+ " + s
	}
}

// FitQuadratic solves the least-squares normal equations for a degree-2
// polynomial with Cramer's rule. The result depends only on the input
// values and their order.
func FitQuadratic(points []Point) (*Quadratic, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}
	var sx, sy, sx2, sx3, sx4, sxy, sx2y float64
	for _, p := range points {
		x2 := p.X * p.X
		sx += p.X
		sy += p.Y
		sx2 += x2
		sx3 += x2 * p.X
		sx4 += x2 * x2
		sxy += p.X * p.Y
		sx2y += x2 * p.Y
	}
	n := float64(len(points))

	m := [3][3]float64{
		{n, sx, sx2},
		{sx, sx2, sx3},
		{sx2, sx3, sx4},
	}
	r := [3]float64{sy, sxy, sx2y}

	det := Determinant3(m)
	// overflowing power sums leave det NaN or ±Inf
	if !finite(det) || math.Abs(det) < singularEpsilon {
		return nil, ErrSingular
	}
	c := Determinant3(replaceColumn(m, 0, r)) / det
	b := Determinant3(replaceColumn(m, 1, r)) / det
	a := Determinant3(replaceColumn(m, 2, r)) / det
	if !finite(a) || !finite(b) || !finite(c) {
		return nil, ErrSingular
	}
	return &Quadratic{A: a, B: b, C: c, N: len(points)}, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Determinant3 expands a 3×3 determinant along the first row.
func Determinant3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func replaceColumn(m [3][3]float64, col int, v [3]float64) [3][3]float64 {
	for i := range m {
		m[i][col] = v[i]
	}
	return m
}
