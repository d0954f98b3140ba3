package window

import (
	"math"
	"testing"
)

func grid(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

func TestAllTypesFiniteAndBounded(t *testing.T) {
	k := grid(400, 0.05)
	for typ := range metadataByType {
		t.Run(Info(typ).Name, func(t *testing.T) {
			w, err := Weights(typ, k, 2, 15, WithDX(1))
			if err != nil {
				t.Fatalf("Weights: %v", err)
			}
			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("weight[%d] invalid: %v", i, v)
				}
				if v < -1e-12 || v > 1+1e-12 {
					t.Fatalf("weight[%d]=%v outside [0,1]", i, v)
				}
			}
		})
	}
}

func TestHanningPlateauAndSupport(t *testing.T) {
	w, err := New(TypeHanning, 3, 12, WithDX(1))
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := w.Support()
	if lo != 2.5 || hi != 12.5 {
		t.Fatalf("support [%v, %v]", lo, hi)
	}

	tests := []struct {
		x    float64
		want float64
	}{
		{2.4, 0},
		{2.5, 0},
		{3.0, 0.5},
		{3.5, 1},
		{7, 1},
		{11.5, 1},
		{12.0, 0.5},
		{12.5, 0},
		{13, 0},
	}
	for _, tt := range tests {
		if got := w.At(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("At(%v)=%v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestSillShapes(t *testing.T) {
	// Midpoint of the left sill for each tapered type.
	tests := []struct {
		typ  Type
		want float64
	}{
		{TypeHanning, 0.5},
		{TypeParzen, 0.5},
		{TypeWelch, 0.75},
	}
	for _, tt := range tests {
		w, err := New(tt.typ, 2, 10, WithDX(2))
		if err != nil {
			t.Fatal(err)
		}
		if got := w.At(2); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("%s: At(xmin)=%v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestAsymmetricSills(t *testing.T) {
	w, err := New(TypeParzen, 2, 10, WithDX(2), WithDX2(0))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.At(10); got != 1 {
		t.Fatalf("sharp right edge: At(xmax)=%v", got)
	}
	if got := w.At(10.01); got != 0 {
		t.Fatalf("beyond sharp edge: %v", got)
	}
	if got := w.At(1.5); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("left ramp: %v", got)
	}
}

func TestKaiserPeaksAtCentre(t *testing.T) {
	w, err := New(TypeKaiserBessel, 0, 10, WithDX(4))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.At(5); math.Abs(got-1) > 1e-6 {
		t.Fatalf("centre=%v", got)
	}
	if w.At(1) >= w.At(3) {
		t.Fatal("kaiser should increase toward the centre")
	}
	if w.At(0) != 0 || w.At(10) != 0 {
		t.Fatal("kaiser should vanish at the ends")
	}
}

func TestGaussianWidth(t *testing.T) {
	w, err := New(TypeGaussian, 0, 10, WithDX(2))
	if err != nil {
		t.Fatal(err)
	}
	want := math.Exp(-0.5)
	if got := w.At(7); math.Abs(got-want) > 1e-12 {
		t.Fatalf("one sigma=%v, want %v", got, want)
	}
	if _, err := New(TypeGaussian, 0, 10, WithDX(0)); err == nil {
		t.Fatal("expected error for zero gaussian width")
	}
}

func TestInvalidConstruction(t *testing.T) {
	if _, err := New(TypeHanning, 5, 5); err == nil {
		t.Fatal("expected error for empty range")
	}
	if _, err := New(TypeHanning, 5, 5.5, WithDX(2)); err == nil {
		t.Fatal("expected error for overlapping sills")
	}
	if _, err := New(Type(99), 0, 1); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestFillAndApply(t *testing.T) {
	w, err := New(TypeHanning, 1, 3, WithDX(0.5))
	if err != nil {
		t.Fatal(err)
	}
	xs := grid(100, 0.05)
	if err := w.Fill(make([]float64, 3), xs); err == nil {
		t.Fatal("expected length mismatch")
	}

	samples := make([]float64, len(xs))
	for i := range samples {
		samples[i] = 2
	}
	scratch := make([]float64, len(xs))
	if err := w.Apply(samples, xs, scratch); err != nil {
		t.Fatal(err)
	}
	for i, x := range xs {
		if math.Abs(samples[i]-2*w.At(x)) > 1e-12 {
			t.Fatalf("sample %d: %v", i, samples[i])
		}
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Type{
		"hanning": TypeHanning,
		"Han":     TypeHanning,
		"kaiser":  TypeKaiserBessel,
		"welch":   TypeWelch,
		"gauss":   TypeGaussian,
		"sine":    TypeSine,
		"parzen":  TypeParzen,
	}
	for name, want := range tests {
		got, ok := Parse(name)
		if !ok || got != want {
			t.Fatalf("Parse(%q)=%v,%v want %v", name, got, ok, want)
		}
	}
	if _, ok := Parse("xx"); ok {
		t.Fatal("short names must not parse")
	}
	if _, ok := Parse("bogus"); ok {
		t.Fatal("unknown names must not parse")
	}
}

func TestBesselI0(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{0, 1},
		{1, 1.2660658777520082},
		{5, 27.239871823604442},
	}
	for _, tt := range tests {
		if got := besselI0(tt.x); math.Abs(got-tt.want)/tt.want > 1e-6 {
			t.Fatalf("I0(%v)=%v, want %v", tt.x, got, tt.want)
		}
	}
}
