package common

import (
	"cmp"
	"math"
	"math/big"
)

// / Returns the square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

// / Returns the absolute value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

// / Returns the distance between two points.
func Vdist(v1, v2 Vec2) float64 {
	return v2.Sub(v1).Len()
}

// / Returns the square of the distance between two points.
func VdistSqr(v1, v2 Vec2) float64 {
	d := v2.Sub(v1)
	return d.Dot(d)
}

// / Derives the 2D perp product of the two vectors. (ux*vy - uy*vx)
func Vperp(u, v Vec2) float64 {
	return u[0]*v[1] - u[1]*v[0]
}

// / Returns v scaled to unit length, or the zero vector when v is (near) zero.
func VnormalizeSafe(v Vec2) Vec2 {
	l := v.Len()
	if l < 1e-12 {
		return Vec2{}
	}
	return v.Mul(1 / l)
}

// / Clamps the length of v to at most maxLen.
func VclampLen(v Vec2, maxLen float64) Vec2 {
	l := v.Len()
	if l <= maxLen || l == 0 {
		return v
	}
	return v.Mul(maxLen / l)
}

// / Performs a linear interpolation between two vectors. (@p v1 toward @p v2)
func Vlerp(v1, v2 Vec2, t float64) Vec2 {
	return Vec2{v1[0] + (v2[0]-v1[0])*t, v1[1] + (v2[1]-v1[1])*t}
}

func IsFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Error bounds of the floating point filters, see Shewchuk,
// "Adaptive Precision Floating-Point Arithmetic and Fast Robust Geometric Predicates".
var (
	epsilon      = math.Ldexp(1, -53)
	ccwErrBoundA = (3 + 16*epsilon) * epsilon
	iccErrBoundA = (10 + 96*epsilon) * epsilon
)

// Orient2D returns a positive value when a, b, c wind counterclockwise, negative when
// clockwise and zero when collinear. The sign is exact; the magnitude approximates
// twice the signed area of the triangle.
func Orient2D(a, b, c Vec2) float64 {
	detLeft := (a[0] - c[0]) * (b[1] - c[1])
	detRight := (a[1] - c[1]) * (b[0] - c[0])
	det := detLeft - detRight

	var detSum float64
	switch {
	case detLeft > 0:
		if detRight <= 0 {
			return det
		}
		detSum = detLeft + detRight
	case detLeft < 0:
		if detRight >= 0 {
			return det
		}
		detSum = -detLeft - detRight
	default:
		return det
	}
	errBound := ccwErrBoundA * detSum
	if det >= errBound || -det >= errBound {
		return det
	}
	return orient2DExact(a, b, c)
}

// InCircle returns a positive value when d lies inside the circle through the
// counterclockwise triangle a, b, c, negative outside and zero on the circle.
func InCircle(a, b, c, d Vec2) float64 {
	adx, ady := a[0]-d[0], a[1]-d[1]
	bdx, bdy := b[0]-d[0], b[1]-d[1]
	cdx, cdy := c[0]-d[0], c[1]-d[1]

	bdxcdy, cdxbdy := bdx*cdy, cdx*bdy
	alift := adx*adx + ady*ady
	cdxady, adxcdy := cdx*ady, adx*cdy
	blift := bdx*bdx + bdy*bdy
	adxbdy, bdxady := adx*bdy, bdx*ady
	clift := cdx*cdx + cdy*cdy

	det := alift*(bdxcdy-cdxbdy) + blift*(cdxady-adxcdy) + clift*(adxbdy-bdxady)
	permanent := (math.Abs(bdxcdy)+math.Abs(cdxbdy))*alift +
		(math.Abs(cdxady)+math.Abs(adxcdy))*blift +
		(math.Abs(adxbdy)+math.Abs(bdxady))*clift
	errBound := iccErrBoundA * permanent
	if det > errBound || -det > errBound {
		return det
	}
	return inCircleExact(a, b, c, d)
}

func rat(v float64) *big.Rat {
	r := new(big.Rat)
	if r.SetFloat64(v) == nil {
		// NaN and infinities have no exact value; treat them as zero so that the
		// predicate degrades to "collinear" instead of panicking.
		return new(big.Rat)
	}
	return r
}

func ratSub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func ratMul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func ratAdd(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }

func signOf(r *big.Rat) float64 {
	f, _ := r.Float64()
	if f == 0 {
		// Underflow of a non-zero exact value still has to keep its sign.
		return float64(r.Sign()) * math.SmallestNonzeroFloat64
	}
	return f
}

func orient2DExact(a, b, c Vec2) float64 {
	acx := ratSub(rat(a[0]), rat(c[0]))
	acy := ratSub(rat(a[1]), rat(c[1]))
	bcx := ratSub(rat(b[0]), rat(c[0]))
	bcy := ratSub(rat(b[1]), rat(c[1]))
	det := ratSub(ratMul(acx, bcy), ratMul(acy, bcx))
	return signOf(det)
}

func inCircleExact(a, b, c, d Vec2) float64 {
	dx, dy := rat(d[0]), rat(d[1])
	adx, ady := ratSub(rat(a[0]), dx), ratSub(rat(a[1]), dy)
	bdx, bdy := ratSub(rat(b[0]), dx), ratSub(rat(b[1]), dy)
	cdx, cdy := ratSub(rat(c[0]), dx), ratSub(rat(c[1]), dy)

	alift := ratAdd(ratMul(adx, adx), ratMul(ady, ady))
	blift := ratAdd(ratMul(bdx, bdx), ratMul(bdy, bdy))
	clift := ratAdd(ratMul(cdx, cdx), ratMul(cdy, cdy))

	t1 := ratMul(alift, ratSub(ratMul(bdx, cdy), ratMul(cdx, bdy)))
	t2 := ratMul(blift, ratSub(ratMul(cdx, ady), ratMul(adx, cdy)))
	t3 := ratMul(clift, ratSub(ratMul(adx, bdy), ratMul(bdx, ady)))
	return signOf(ratAdd(ratAdd(t1, t2), t3))
}
