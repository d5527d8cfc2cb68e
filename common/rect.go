package common

// Rect is an integer pixel rectangle with its origin at the lower-left corner.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Aspect returns width over height, or 1 for a degenerate rectangle.
func (r Rect) Aspect() float32 {
	if r.Height <= 0 {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}
