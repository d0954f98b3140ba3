package autobk

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

func TestNewSplineKnotVector(t *testing.T) {
	s, err := NewSpline(0, 16, 11)
	if err != nil {
		t.Fatal(err)
	}
	if s.Degree != 3 || s.Len() != 11 || len(s.Knots) != 15 {
		t.Fatalf("degree=%d len=%d knots=%d", s.Degree, s.Len(), len(s.Knots))
	}
	for i := 0; i < 4; i++ {
		if s.Knots[i] != 0 || s.Knots[len(s.Knots)-1-i] != 16 {
			t.Fatalf("knot vector not clamped: %v", s.Knots)
		}
	}
	for i := 4; i < 11; i++ {
		want := 2 * float64(i-3)
		if math.Abs(s.Knots[i]-want) > 1e-12 {
			t.Fatalf("knot %d = %v, want %v", i, s.Knots[i], want)
		}
	}
}

func TestNewSplineDegree(t *testing.T) {
	tests := []struct {
		n, degree int
	}{
		{2, 1},
		{3, 2},
		{4, 3},
		{12, 3},
	}
	for _, tt := range tests {
		s, err := NewSpline(1, 2, tt.n)
		if err != nil {
			t.Fatal(err)
		}
		if s.Degree != tt.degree {
			t.Fatalf("n=%d: degree=%d, want %d", tt.n, s.Degree, tt.degree)
		}
	}
}

func TestNewSplineErrors(t *testing.T) {
	for _, tc := range []struct {
		lo, hi float64
		n      int
	}{
		{0, 10, 1},
		{0, 10, 0},
		{5, 5, 4},
		{6, 5, 4},
	} {
		_, err := NewSpline(tc.lo, tc.hi, tc.n)
		var berr *xafserr.BackgroundError
		if !errors.As(err, &berr) || berr.Reason != xafserr.SplineConstruction {
			t.Fatalf("%+v: err=%v", tc, err)
		}
	}
}

func TestSplinePartitionOfUnity(t *testing.T) {
	for _, n := range []int{2, 3, 5, 11} {
		s, _ := NewSpline(0, 16, n)
		for j := range s.Coef {
			s.Coef[j] = 1
		}
		for x := -1.0; x <= 17; x += 0.37 {
			if v := s.Eval(x); math.Abs(v-1) > 1e-12 {
				t.Fatalf("n=%d: Eval(%v)=%v, want 1", n, x, v)
			}
		}
	}
}

func TestSplineLinearPrecision(t *testing.T) {
	s, _ := NewSpline(2, 14, 9)
	copy(s.Coef, s.Greville())
	for x := 2.0; x <= 14; x += 0.1 {
		if v := s.Eval(x); math.Abs(v-x) > 1e-10 {
			t.Fatalf("Eval(%v)=%v", x, v)
		}
	}
	// Constant continuation beyond the domain.
	if s.Eval(0) != s.Eval(2) || s.Eval(20) != s.Eval(14) {
		t.Fatal("spline must be continued by its boundary values")
	}
}

func TestSplineCloneIsIndependent(t *testing.T) {
	s, _ := NewSpline(0, 1, 4)
	c := s.Clone()
	c.Coef[0] = 3
	c.Knots[0] = -1
	if s.Coef[0] != 0 || s.Knots[0] != 0 {
		t.Fatal("clone shares storage")
	}
}
