package grid

import "fmt"

// Boundary selects how out-of-range neighbor indices are resolved.
// The policy is part of the discretization: clamped edges approximate
// zero-gradient (Neumann) conditions, periodic edges wrap the domain.
// Mixing policies within one run corrupts the stencil, so the policy is
// always an explicit named input, never inferred.
type Boundary int

const (
	Clamped Boundary = iota
	Periodic
)

func ParseBoundary(name string) (Boundary, error) {
	switch name {
	case "clamped":
		return Clamped, nil
	case "periodic":
		return Periodic, nil
	default:
		return 0, fmt.Errorf("unknown boundary policy: %q (want clamped or periodic)", name)
	}
}

func (b Boundary) String() string {
	switch b {
	case Clamped:
		return "clamped"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

// Index resolves a possibly out-of-range index against an axis of length n.
// Clamped replaces it with the nearest in-range index; Periodic wraps it
// modulo n. Callers only ever pass i within [-1, n], but the modulo form
// handles any offset.
func (b Boundary) Index(i, n int) int {
	switch b {
	case Clamped:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	case Periodic:
		m := i % n
		if m < 0 {
			m += n
		}
		return m
	default:
		panic("grid: invalid boundary policy")
	}
}
