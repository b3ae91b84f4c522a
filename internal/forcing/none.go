package forcing

// None is the zero forcing term.
type None struct{}

func NewNone() None { return None{} }

func (None) At(x, y, t float64) float64 { return 0 }
