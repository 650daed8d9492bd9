package target

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is a product of independent normal components.
type Gaussian struct {
	components []distuv.Normal
}

func NewGaussian(mean, stddev []float64) (*Gaussian, error) {
	if len(mean) == 0 {
		return nil, errors.New("gaussian target needs at least one dimension")
	}
	if len(stddev) != len(mean) {
		return nil, fmt.Errorf("gaussian target dimension mismatch: %d means, %d stddevs", len(mean), len(stddev))
	}
	components := make([]distuv.Normal, len(mean))
	for i := range mean {
		if stddev[i] <= 0 {
			return nil, fmt.Errorf("gaussian target stddev must be positive, got %v at %d", stddev[i], i)
		}
		components[i] = distuv.Normal{Mu: mean[i], Sigma: stddev[i]}
	}
	return &Gaussian{components: components}, nil
}

// NewStandardGaussian builds a dim-dimensional standard normal.
func NewStandardGaussian(dim int) (*Gaussian, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("gaussian target dimension must be positive, got %d", dim)
	}
	mean := make([]float64, dim)
	stddev := make([]float64, dim)
	for i := range stddev {
		stddev[i] = 1
	}
	return NewGaussian(mean, stddev)
}

func (g *Gaussian) Name() string { return "gaussian" }

func (g *Gaussian) Dim() int { return len(g.components) }

func (g *Gaussian) LogDensity(x []float64) float64 {
	total := 0.0
	for i, component := range g.components {
		total += component.LogProb(x[i])
	}
	return total
}

func (g *Gaussian) Gradient(x []float64) []float64 {
	grad := make([]float64, len(g.components))
	for i, component := range g.components {
		grad[i] = -(x[i] - component.Mu) / (component.Sigma * component.Sigma)
	}
	return grad
}
