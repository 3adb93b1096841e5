package light

// Oscillator ping-pongs a value between -Bound and Bound by Step per tick.
// The direction flips on the tick that reaches or passes a bound.
type Oscillator struct {
	Value  float32
	Step   float32
	Bound  float32
	Rising bool
}

// Tick advances the value one step and returns it.
func (o *Oscillator) Tick() float32 {
	if o.Rising {
		o.Value += o.Step
		if o.Value >= o.Bound {
			o.Rising = false
		}
	} else {
		o.Value -= o.Step
		if o.Value <= -o.Bound {
			o.Rising = true
		}
	}
	return o.Value
}
