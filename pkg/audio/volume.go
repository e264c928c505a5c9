package audio

import "math"

// volumeToPower maps a 0..1 linear volume to beep's base-2 power exponent.
// Unity gain at 1.0; anything at or below 0.01 is treated as silent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
