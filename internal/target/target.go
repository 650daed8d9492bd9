// Package target defines the distributions the samplers draw from.
package target

import (
	"fmt"
	"sort"
)

// Distribution is a target density known up to its normalizing
// constant, with the gradient of the log-density for Hamiltonian
// dynamics.
type Distribution interface {
	Name() string
	Dim() int
	LogDensity(x []float64) float64
	Gradient(x []float64) []float64
}

// New builds a registered distribution by name.
func New(name string, dim int) (Distribution, error) {
	switch name {
	case "gaussian":
		return NewStandardGaussian(dim)
	case "banana":
		return NewBanana(0.05, 100)
	default:
		return nil, fmt.Errorf("unknown target: %s", name)
	}
}

// Names lists the registered target names.
func Names() []string {
	names := []string{"banana", "gaussian"}
	sort.Strings(names)
	return names
}
