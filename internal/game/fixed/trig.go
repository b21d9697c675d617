package fixed

// Trigonometry works on whole degrees. The tables hold Q14 integers
// (16384 == 1.0) so that results stay exact and identical on every platform.

const trigOne = 1 << 14

// sinTable is sin(d) for d in [0, 90], Q14.
var sinTable = [91]int32{
	0, 286, 572, 857, 1143, 1428, 1713, 1997, 2280, 2563,
	2845, 3126, 3406, 3686, 3964, 4240, 4516, 4790, 5063, 5334,
	5604, 5872, 6138, 6402, 6664, 6924, 7182, 7438, 7692, 7943,
	8192, 8438, 8682, 8923, 9162, 9397, 9630, 9860, 10087, 10311,
	10531, 10749, 10963, 11174, 11381, 11585, 11786, 11982, 12176, 12365,
	12551, 12733, 12911, 13085, 13255, 13421, 13583, 13741, 13894, 14044,
	14189, 14330, 14466, 14598, 14726, 14849, 14968, 15082, 15191, 15296,
	15396, 15491, 15582, 15668, 15749, 15826, 15897, 15964, 16026, 16083,
	16135, 16182, 16225, 16262, 16294, 16322, 16344, 16362, 16374, 16382,
	16384,
}

// tanTable is tan(d) for d in [0, 45], Q14.
var tanTable = [46]int32{
	0, 286, 572, 859, 1146, 1433, 1722, 2012, 2303, 2595,
	2889, 3185, 3483, 3783, 4085, 4390, 4698, 5009, 5323, 5641,
	5963, 6289, 6620, 6955, 7295, 7640, 7991, 8348, 8712, 9082,
	9459, 9845, 10238, 10640, 11051, 11472, 11904, 12346, 12801, 13268,
	13748, 14242, 14752, 15278, 15822, 16384,
}

// NormalizeDegrees maps any integer angle into [0, 360).
func NormalizeDegrees(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// sinQ14 returns sin(deg) in Q14.
func sinQ14(deg int) int32 {
	d := NormalizeDegrees(deg)
	switch {
	case d <= 90:
		return sinTable[d]
	case d <= 180:
		return sinTable[180-d]
	case d <= 270:
		return -sinTable[d-180]
	default:
		return -sinTable[360-d]
	}
}

// fromQ14 converts a Q14 value to Fixed, rounding half away from zero so
// that Sin(-x) == -Sin(x).
func fromQ14(v int32) Fixed {
	neg := v < 0
	if neg {
		v = -v
	}
	shift := 14 - FracBits
	r := (v + 1<<(shift-1)) >> shift
	if neg {
		r = -r
	}
	return Fixed(r)
}

// Sin returns the sine of an angle in whole degrees.
func Sin(deg int) Fixed { return fromQ14(sinQ14(deg)) }

// Cos returns the cosine of an angle in whole degrees.
func Cos(deg int) Fixed { return fromQ14(sinQ14(deg + 90)) }

// octant returns atan(num/den) in whole degrees for 0 <= num <= den, den > 0.
func octant(num, den int32) int {
	ratio := int32((int64(num) * trigOne) / int64(den))
	lo, hi := 0, 45
	for lo < hi {
		mid := (lo + hi) / 2
		if tanTable[mid] < ratio {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// lo is the first entry >= ratio; pick the nearer neighbour.
	if lo > 0 && ratio-tanTable[lo-1] <= tanTable[lo]-ratio {
		return lo - 1
	}
	return lo
}

// Atan2 returns the angle of the vector (x, y) in whole degrees in [0, 360),
// measured counter-clockwise from the positive x axis in a y-up frame.
// Atan2(0, 0) is 0.
func Atan2(y, x Fixed) int {
	ax, ay := int32(x), int32(y)
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	if ax == 0 && ay == 0 {
		return 0
	}
	var a int
	if ay <= ax {
		a = octant(ay, ax)
	} else {
		a = 90 - octant(ax, ay)
	}
	switch {
	case x >= 0 && y >= 0:
	case x < 0 && y >= 0:
		a = 180 - a
	case x < 0:
		a = 180 + a
	default:
		a = 360 - a
	}
	return NormalizeDegrees(a)
}
