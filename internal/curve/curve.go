// Package curve implements a bucketed piecewise-linear lookup table.
//
// It mirrors the normalize-then-bucket strategy used throughout the original
// simulator's hot paths: curve evaluation runs inside the innermost timestep
// loop, so a naive O(n) segment search is replaced by a precomputed O(1)
// bucket index.
package curve

import (
	"fmt"
	"math"
)

// bucketCount is the number of precomputed lookup buckets. The original
// implementation fixed this at 1000; there is no reason to make it
// configurable, so it stays a constant rather than a parameter threaded
// through every constructor.
const bucketCount = 1000

// Curve is a piecewise-linear function of a single variable, backed by a
// bucketed index for O(1) evaluation.
type Curve struct {
	x []float64
	y []float64

	xmin, xmax float64
	ymin, ymax float64

	// Parallel arrays of length bucketCount. Bucket b covers the segment
	// [xlower[b], xupper[b]] -> [ylower[b], yupper[b]] in normalized space.
	xlower, xupper []float64
	ylower, yupper []float64
}

// New builds a Curve from a strictly ascending sequence of (x, y) pairs.
// At least two points are required.
func New(x, y []float64) (*Curve, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("curve: x and y must have equal length, got %d and %d", len(x), len(y))
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("curve: need at least 2 points, got %d", len(x))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("curve: x must be strictly ascending, x[%d]=%v <= x[%d]=%v", i, x[i], i-1, x[i-1])
		}
	}

	c := &Curve{
		x:    append([]float64(nil), x...),
		y:    append([]float64(nil), y...),
		xmin: x[0], xmax: x[len(x)-1],
	}
	c.ymin, c.ymax = y[0], y[0]
	for _, v := range y {
		if v < c.ymin {
			c.ymin = v
		}
		if v > c.ymax {
			c.ymax = v
		}
	}

	c.initializeBuckets()
	return c, nil
}

// initializeBuckets normalizes a copy of the input points into [0,1] on both
// axes and fills the bucket arrays. The original points (c.x, c.y) are left
// untouched so the curve can be reconstructed or re-initialized freely.
func (c *Curve) initializeBuckets() {
	n := len(c.x)
	xn := make([]float64, n)
	yn := make([]float64, n)
	xspan := c.xmax - c.xmin
	yspan := c.ymax - c.ymin
	for i := 0; i < n; i++ {
		xn[i] = normalize(c.x[i], c.xmin, xspan)
		yn[i] = normalize(c.y[i], c.ymin, yspan)
	}

	c.xlower = make([]float64, bucketCount)
	c.xupper = make([]float64, bucketCount)
	c.ylower = make([]float64, bucketCount)
	c.yupper = make([]float64, bucketCount)

	seg := 0
	for b := 0; b < bucketCount; b++ {
		xb := float64(b) / float64(bucketCount-1)
		for seg < n-2 && xn[seg+1] < xb {
			seg++
		}
		c.xlower[b] = xn[seg]
		c.ylower[b] = yn[seg]
		c.xupper[b] = xn[seg+1]
		c.yupper[b] = yn[seg+1]
	}
}

func normalize(v, min, span float64) float64 {
	if span == 0 {
		return 0
	}
	return (v - min) / span
}

// Eval returns the interpolated y for the given x. x must lie within
// [xmin, xmax]; an error is returned otherwise, matching the source's fatal-on-
// out-of-range behaviour translated into an ordinary error return.
func (c *Curve) Eval(x float64) (float64, error) {
	if x < c.xmin || x > c.xmax {
		return 0, fmt.Errorf("curve: x=%v out of range [%v, %v]", x, c.xmin, c.xmax)
	}

	xspan := c.xmax - c.xmin
	yspan := c.ymax - c.ymin
	xn := normalize(x, c.xmin, xspan)

	// Round-to-nearest bucket index. This reproduces the original
	// implementation's documented right-boundary quirk: a query that lands
	// exactly between two buckets can round into the neighbouring bucket's
	// segment rather than the mathematically exact one. See the Open
	// Questions note in the design ledger before "fixing" this to floor().
	b := int(math.Round(xn * float64(bucketCount-1)))
	if b >= bucketCount {
		b = bucketCount - 1
	}
	if b < 0 {
		b = 0
	}

	xl, xu := c.xlower[b], c.xupper[b]
	yl, yu := c.ylower[b], c.yupper[b]

	var yn float64
	if xu == xl {
		yn = yl
	} else {
		yn = yl + (xn-xl)*(yu-yl)/(xu-xl)
	}

	return yn*yspan + c.ymin, nil
}

// MustEval panics if Eval fails. Reserved for call sites that have already
// validated the input domain (e.g. after a prior bounds check) and want to
// avoid threading an error return through an otherwise straight-line
// calculation.
func (c *Curve) MustEval(x float64) float64 {
	y, err := c.Eval(x)
	if err != nil {
		panic(err)
	}
	return y
}

// Xmin and Xmax expose the curve's domain, used by callers (e.g. the
// reservoir overflow check) that need to test against the boundary before
// calling Eval.
func (c *Curve) Xmin() float64 { return c.xmin }
func (c *Curve) Xmax() float64 { return c.xmax }
func (c *Curve) Ymin() float64 { return c.ymin }
func (c *Curve) Ymax() float64 { return c.ymax }
