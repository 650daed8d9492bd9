package target

import "fmt"

// Banana is the two-dimensional curved Gaussian benchmark: the first
// coordinate is N(0, var1) and the second is unit-variance normal
// around the curve -b*(x1^2 - var1).
type Banana struct {
	b    float64
	var1 float64
}

func NewBanana(b, var1 float64) (*Banana, error) {
	if b <= 0 || var1 <= 0 {
		return nil, fmt.Errorf("banana target parameters must be positive, got b=%v var1=%v", b, var1)
	}
	return &Banana{b: b, var1: var1}, nil
}

func (t *Banana) Name() string { return "banana" }

func (t *Banana) Dim() int { return 2 }

func (t *Banana) LogDensity(x []float64) float64 {
	shifted := x[1] + t.b*(x[0]*x[0]-t.var1)
	return -x[0]*x[0]/(2*t.var1) - shifted*shifted/2
}

func (t *Banana) Gradient(x []float64) []float64 {
	shifted := x[1] + t.b*(x[0]*x[0]-t.var1)
	return []float64{
		-x[0]/t.var1 - shifted*2*t.b*x[0],
		-shifted,
	}
}
