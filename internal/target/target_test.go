package target

import (
	"math"
	"testing"
)

func TestGaussianLogDensity(t *testing.T) {
	g, err := NewStandardGaussian(2)
	if err != nil {
		t.Fatalf("building target failed: %v", err)
	}

	// Standard bivariate normal at the origin.
	want := -math.Log(2 * math.Pi)
	got := g.LogDensity([]float64{0, 0})
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("log density at origin: got %v, want %v", got, want)
	}

	// Shifting one coordinate by x lowers the log density by x^2/2.
	drop := g.LogDensity([]float64{0, 0}) - g.LogDensity([]float64{3, 0})
	if math.Abs(drop-4.5) > 1e-12 {
		t.Fatalf("expected log density drop 4.5, got %v", drop)
	}
}

func TestGaussianGradient(t *testing.T) {
	g, err := NewGaussian([]float64{1, -2}, []float64{1, 2})
	if err != nil {
		t.Fatalf("building target failed: %v", err)
	}

	grad := g.Gradient([]float64{3, 0})
	if math.Abs(grad[0]-(-2)) > 1e-12 {
		t.Fatalf("gradient[0]: got %v, want -2", grad[0])
	}
	if math.Abs(grad[1]-(-0.5)) > 1e-12 {
		t.Fatalf("gradient[1]: got %v, want -0.5", grad[1])
	}
}

func TestGaussianValidation(t *testing.T) {
	if _, err := NewGaussian([]float64{0}, []float64{0}); err == nil {
		t.Fatal("expected an error for a zero stddev")
	}
	if _, err := NewGaussian([]float64{0, 0}, []float64{1}); err == nil {
		t.Fatal("expected an error for mismatched lengths")
	}
	if _, err := NewStandardGaussian(0); err == nil {
		t.Fatal("expected an error for dimension 0")
	}
}

func TestBananaGradientMatchesFiniteDifferences(t *testing.T) {
	b, err := NewBanana(0.05, 100)
	if err != nil {
		t.Fatalf("building target failed: %v", err)
	}

	points := [][]float64{{0, 0}, {1, -2}, {-3, 4}, {7, 0.5}}
	const eps = 1e-6
	for _, x := range points {
		grad := b.Gradient(x)
		for i := range x {
			hi := append([]float64(nil), x...)
			lo := append([]float64(nil), x...)
			hi[i] += eps
			lo[i] -= eps
			numeric := (b.LogDensity(hi) - b.LogDensity(lo)) / (2 * eps)
			if math.Abs(grad[i]-numeric) > 1e-5 {
				t.Fatalf("gradient mismatch at %v component %d: analytic %v, numeric %v", x, i, grad[i], numeric)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	g, err := New("gaussian", 5)
	if err != nil {
		t.Fatalf("registry lookup failed: %v", err)
	}
	if g.Dim() != 5 {
		t.Fatalf("expected dimension 5, got %d", g.Dim())
	}

	b, err := New("banana", 2)
	if err != nil {
		t.Fatalf("registry lookup failed: %v", err)
	}
	if b.Dim() != 2 {
		t.Fatalf("expected dimension 2, got %d", b.Dim())
	}

	if _, err := New("cauchy", 1); err == nil {
		t.Fatal("expected an error for an unknown target")
	}

	names := Names()
	if len(names) != 2 || names[0] != "banana" || names[1] != "gaussian" {
		t.Fatalf("unexpected registry names: %v", names)
	}
}
