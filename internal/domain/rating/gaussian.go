package rating

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// gaussian is a normal distribution in natural parameters: precision pi and
// precision-adjusted mean tau. Products and quotients of gaussians are then
// plain additions and subtractions.
type gaussian struct {
	pi  float64
	tau float64
}

func newGaussian(mu, sigma float64) gaussian {
	pi := 1 / (sigma * sigma)
	return gaussian{pi: pi, tau: pi * mu}
}

func (g gaussian) mu() float64 {
	if g.pi == 0 {
		return 0
	}
	return g.tau / g.pi
}

func (g gaussian) sigma() float64 {
	if g.pi == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(1 / g.pi)
}

func (g gaussian) mul(o gaussian) gaussian {
	return gaussian{pi: g.pi + o.pi, tau: g.tau + o.tau}
}

func (g gaussian) div(o gaussian) gaussian {
	return gaussian{pi: g.pi - o.pi, tau: g.tau - o.tau}
}

func cdf(x float64) float64 { return distuv.UnitNormal.CDF(x) }

func pdf(x float64) float64 { return distuv.UnitNormal.Prob(x) }

func ppf(p float64) float64 { return distuv.UnitNormal.Quantile(p) }

// maxW keeps the truncation variance factor strictly below one so the
// posterior precision stays finite on extreme upsets.
const maxW = 1 - 1e-9

// vWin and wWin are the additive and multiplicative corrections for a
// performance difference truncated at the draw margin (a strict win).
func vWin(diff, margin float64) float64 {
	x := diff - margin
	denom := cdf(x)
	if denom == 0 {
		return -x
	}
	return pdf(x) / denom
}

func wWin(diff, margin float64) float64 {
	x := diff - margin
	v := vWin(diff, margin)
	return clampW(v * (v + x))
}

// vDraw and wDraw are the corrections for a difference that fell inside the
// draw margin.
func vDraw(diff, margin float64) float64 {
	abs := math.Abs(diff)
	a, b := margin-abs, -margin-abs
	denom := cdf(a) - cdf(b)
	v := a
	if denom != 0 {
		v = (pdf(b) - pdf(a)) / denom
	}
	if diff < 0 {
		return -v
	}
	return v
}

func wDraw(diff, margin float64) float64 {
	abs := math.Abs(diff)
	a, b := margin-abs, -margin-abs
	denom := cdf(a) - cdf(b)
	if denom == 0 {
		return maxW
	}
	v := vDraw(abs, margin)
	return clampW(v*v + (a*pdf(a)-b*pdf(b))/denom)
}

func clampW(w float64) float64 {
	switch {
	case math.IsNaN(w), w <= 0:
		return 0
	case w > maxW:
		return maxW
	}
	return w
}

// drawMargin converts a draw probability between two sides holding size
// players in total into a performance-difference margin.
func drawMargin(p float64, size int, beta float64) float64 {
	return ppf((p+1)/2) * math.Sqrt(float64(size)) * beta
}
