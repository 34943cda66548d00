package regression

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const tol = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < tol }

func TestFitQuadratic_Exact(t *testing.T) {
	q, err := FitQuadratic([]Point{{0, 1}, {1, 2}, {2, 5}})
	if err != nil {
		t.Fatalf("FitQuadratic: %v", err)
	}
	if !near(q.A, 1) || !near(q.B, 0) || !near(q.C, 1) {
		t.Fatalf("got a=%v b=%v c=%v, want 1 0 1", q.A, q.B, q.C)
	}
	if got := q.Predict(3); !near(got, 10) {
		t.Fatalf("Predict(3) = %v, want 10", got)
	}
	if q.N != 3 {
		t.Fatalf("N = %d", q.N)
	}
}

func TestFitQuadratic_LeastSquares(t *testing.T) {
	// y = 2x² - 3x + 4 sampled exactly at five points
	var pts []Point
	for _, x := range []float64{-2, -1, 0.5, 3, 10} {
		pts = append(pts, Point{x, 2*x*x - 3*x + 4})
	}
	q, err := FitQuadratic(pts)
	if err != nil {
		t.Fatalf("FitQuadratic: %v", err)
	}
	if math.Abs(q.A-2) > 1e-6 || math.Abs(q.B+3) > 1e-6 || math.Abs(q.C-4) > 1e-6 {
		t.Fatalf("got %+v", q)
	}
}

func TestFitQuadratic_TooFewPoints(t *testing.T) {
	for _, pts := range [][]Point{nil, {{1, 1}}, {{1, 1}, {2, 2}}} {
		if _, err := FitQuadratic(pts); !errors.Is(err, ErrTooFewPoints) {
			t.Fatalf("%d points: want ErrTooFewPoints, got %v", len(pts), err)
		}
	}
}

func TestFitQuadratic_Singular(t *testing.T) {
	cases := [][]Point{
		{{1, 1}, {1, 2}, {1, 3}},         // one distinct x
		{{0, 0}, {0, 1}, {1, 1}},         // two distinct x
		{{5, 1}, {5, 1}, {5, 1}, {5, 2}}, // repeated
	}
	for _, pts := range cases {
		if _, err := FitQuadratic(pts); !errors.Is(err, ErrSingular) {
			t.Fatalf("%v: want ErrSingular, got %v", pts, err)
		}
	}
}

func TestFitQuadratic_Overflow(t *testing.T) {
	cases := [][]Point{
		{{1e90, 1}, {2e90, 2}, {3e90, 3}},
		{{1, 1e300}, {2, -1e300}, {3, 1e300}, {1e80, 5}},
	}
	for _, pts := range cases {
		q, err := FitQuadratic(pts)
		if !errors.Is(err, ErrSingular) {
			t.Fatalf("%v: want ErrSingular, got %+v %v", pts, q, err)
		}
	}
}

func TestFitQuadratic_Deterministic(t *testing.T) {
	pts := []Point{{1, 3}, {2, 1}, {4, 8}, {7, 2}}
	a, _ := FitQuadratic(pts)
	b, _ := FitQuadratic(pts)
	if *a != *b {
		t.Fatalf("same input gave %+v and %+v", a, b)
	}
}

func TestDeterminant3(t *testing.T) {
	m := [3][3]float64{{2, 0, 1}, {1, 3, 2}, {1, 1, 2}}
	if got := Determinant3(m); !near(got, 6) {
		t.Fatalf("det = %v, want 6", got)
	}
}

func TestQuadraticString(t *testing.T) {
	q := &Quadratic{A: 1, B: -2.5, C: 0}
	s := q.String()
	if !strings.HasPrefix(s, "y = 1·x²") || !strings.Contains(s, "- 2.5·x") {
		t.Fatalf("String = %q", s)
	}
}
