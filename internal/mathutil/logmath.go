package mathutil

import "math"

// LogZero represents log(0), used as negative infinity in log-domain arithmetic.
const LogZero = -1e30

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way.
// Uses threshold-based early exit to skip expensive exp/log1p when the
// smaller value contributes less than float64 precision (exp(-36) ≈ 2.3e-16).
func LogAdd(a, b float64) float64 {
	if a > b {
		if b <= LogZero {
			return a
		}
		d := b - a
		if d < -36.0 {
			return a
		}
		return a + math.Log1p(math.Exp(d))
	}
	if a <= LogZero {
		return b
	}
	d := a - b
	if d < -36.0 {
		return b
	}
	return b + math.Log1p(math.Exp(d))
}

// SafeLog returns log(p), clamped to LogZero for p <= 0.
func SafeLog(p float64) float64 {
	if p <= 0 {
		return LogZero
	}
	return math.Log(p)
}

// IsZero reports whether a log-domain value is indistinguishable from log(0).
func IsZero(lp float64) bool {
	return lp <= LogZero
}
