package rating

import "math"

// variable is a node of the factor graph. Its value is the product of every
// message it has received, and it remembers the last message per factor so
// that a factor can replace its own contribution.
type variable struct {
	gaussian
	messages map[int]gaussian
}

func newVariable() *variable {
	return &variable{messages: make(map[int]gaussian)}
}

func (v *variable) set(g gaussian) float64 {
	d := v.delta(g)
	v.gaussian = g
	return d
}

// delta is the convergence measure between the current value and g.
func (v *variable) delta(g gaussian) float64 {
	piDelta := math.Abs(v.pi - g.pi)
	if math.IsInf(piDelta, 1) {
		return 0
	}
	return math.Max(math.Abs(v.tau-g.tau), math.Sqrt(piDelta))
}

func (v *variable) updateMessage(factor int, msg gaussian) float64 {
	old := v.messages[factor]
	v.messages[factor] = msg
	return v.set(v.gaussian.div(old).mul(msg))
}

func (v *variable) updateValue(factor int, val gaussian) float64 {
	old := v.messages[factor]
	v.messages[factor] = val.mul(old).div(v.gaussian)
	return v.set(val)
}

// marginal returns the value of v without the message sent by factor.
func (v *variable) marginal(factor int) gaussian {
	return v.gaussian.div(v.messages[factor])
}

// priorFactor seeds a skill variable with the member's belief widened by the
// dynamics factor.
type priorFactor struct {
	id      int
	skill   *variable
	prior   Rating
	dynamic float64
}

func (f *priorFactor) down() float64 {
	sigma := math.Sqrt(f.prior.Sigma*f.prior.Sigma + f.dynamic*f.dynamic)
	return f.skill.updateValue(f.id, newGaussian(f.prior.Mu, sigma))
}

// likelihoodFactor links a skill to a noisy performance with the given
// variance.
type likelihoodFactor struct {
	id       int
	mean     *variable
	value    *variable
	variance float64
}

func (f *likelihoodFactor) scale(g gaussian) float64 {
	return 1 / (1 + f.variance*g.pi)
}

func (f *likelihoodFactor) down() float64 {
	msg := f.mean.marginal(f.id)
	a := f.scale(msg)
	return f.value.updateMessage(f.id, gaussian{pi: a * msg.pi, tau: a * msg.tau})
}

func (f *likelihoodFactor) up() float64 {
	msg := f.value.marginal(f.id)
	a := f.scale(msg)
	return f.mean.updateMessage(f.id, gaussian{pi: a * msg.pi, tau: a * msg.tau})
}

// sumFactor constrains sum = Σ coeffs[i]·terms[i].
type sumFactor struct {
	id     int
	sum    *variable
	terms  []*variable
	coeffs []float64
}

func (f *sumFactor) down() float64 {
	return f.update(f.sum, f.terms, f.coeffs)
}

// up solves the constraint for terms[index].
func (f *sumFactor) up(index int) float64 {
	pivot := f.coeffs[index]
	coeffs := make([]float64, len(f.coeffs))
	for i, c := range f.coeffs {
		switch {
		case pivot == 0:
			coeffs[i] = 0
		case i == index:
			coeffs[i] = 1 / pivot
		default:
			coeffs[i] = -c / pivot
		}
	}
	vals := make([]*variable, len(f.terms))
	copy(vals, f.terms)
	vals[index] = f.sum
	return f.update(f.terms[index], vals, coeffs)
}

func (f *sumFactor) update(target *variable, vals []*variable, coeffs []float64) float64 {
	var piInv, mu float64
	for i, val := range vals {
		div := val.marginal(f.id)
		mu += coeffs[i] * div.mu()
		if math.IsInf(piInv, 1) {
			continue
		}
		if div.pi == 0 {
			piInv = math.Inf(1)
			continue
		}
		piInv += coeffs[i] * coeffs[i] / div.pi
	}
	pi := 1 / piInv
	return target.updateMessage(f.id, gaussian{pi: pi, tau: pi * mu})
}

// truncateFactor applies the observed outcome to a performance difference.
type truncateFactor struct {
	id     int
	diff   *variable
	v      func(diff, margin float64) float64
	w      func(diff, margin float64) float64
	margin float64
}

func (f *truncateFactor) up() float64 {
	div := f.diff.marginal(f.id)
	sqrtPi := math.Sqrt(div.pi)
	d, m := div.tau/sqrtPi, f.margin*sqrtPi
	v := f.v(d, m)
	w := f.w(d, m)
	denom := 1 - w
	return f.diff.updateValue(f.id, gaussian{
		pi:  div.pi / denom,
		tau: (div.tau + sqrtPi*v) / denom,
	})
}
