package metrics

import "math"

// InBand reports the fraction of samples whose setpoint error stays
// within the tolerance band. 1.0 means the loop never left the band.
type InBand struct {
	name      string
	tolerance float64
	within    int
	samples   int
}

func NewInBand(tolerance float64) *InBand {
	return &InBand{
		name:      "in_band",
		tolerance: tolerance,
	}
}

func (b *InBand) Name() string {
	return b.name
}

func (b *InBand) Observe(pv, sp, u, t float64) {
	b.samples++
	if math.Abs(sp-pv) <= b.tolerance {
		b.within++
	}
}

func (b *InBand) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return float64(b.within) / float64(b.samples)
}

func (b *InBand) Reset() {
	b.within = 0
	b.samples = 0
}
