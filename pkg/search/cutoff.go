package search

// Cutoff produces the sequence of per-restart fail budgets consumed by
// RestartEngine: each call to Next returns the budget for one attempt.
// Sequences are expected to be monotonically nondecreasing, though the
// engine does not enforce this.
type Cutoff interface {
	// Next returns the fail budget for the next restart attempt.
	Next() uint64
}

// constantCutoff yields the same budget forever.
type constantCutoff struct {
	n uint64
}

// NewConstantCutoff returns a cutoff sequence that yields n for every
// attempt. n must be at least 1; smaller values are raised to 1.
func NewConstantCutoff(n uint64) Cutoff {
	if n < 1 {
		n = 1
	}
	return &constantCutoff{n: n}
}

func (c *constantCutoff) Next() uint64 {
	return c.n
}

// geometricCutoff yields base, base*factor, base*factor^2, ...
type geometricCutoff struct {
	cur    float64
	factor float64
}

// NewGeometricCutoff returns a geometrically growing cutoff sequence
// starting at base with the given growth factor. base is raised to at
// least 1 and factor to at least 1.0.
func NewGeometricCutoff(base uint64, factor float64) Cutoff {
	if base < 1 {
		base = 1
	}
	if factor < 1.0 {
		factor = 1.0
	}
	return &geometricCutoff{cur: float64(base), factor: factor}
}

func (c *geometricCutoff) Next() uint64 {
	n := uint64(c.cur)
	c.cur *= c.factor
	return n
}

// lubyCutoff yields scale times the Luby sequence
// 1 1 2 1 1 2 4 1 1 2 1 1 2 4 8 ...
type lubyCutoff struct {
	i     uint64
	scale uint64
}

// NewLubyCutoff returns the Luby restart sequence scaled by scale. The
// Luby sequence is the classic universal restart strategy: it is within
// a logarithmic factor of the optimal fixed cutoff for any solution
// distribution. scale is raised to at least 1.
func NewLubyCutoff(scale uint64) Cutoff {
	if scale < 1 {
		scale = 1
	}
	return &lubyCutoff{i: 1, scale: scale}
}

func (c *lubyCutoff) Next() uint64 {
	n := luby(c.i)
	c.i++
	return c.scale * n
}

// luby computes the i-th element (1-based) of the Luby sequence.
func luby(i uint64) uint64 {
	// If i == 2^k - 1 the element is 2^(k-1); otherwise recurse on
	// i - (2^(k-1) - 1) where 2^(k-1) - 1 < i < 2^k - 1.
	for k := uint64(1); ; k++ {
		pow := uint64(1) << k
		if i == pow-1 {
			return pow / 2
		}
		if i < pow-1 {
			return luby(i - (pow/2 - 1))
		}
	}
}
