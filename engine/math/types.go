package math

import "fmt"

// Size is a width and height in pixels.
type Size struct {
	Width, Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect is an axis aligned pixel rectangle inside a texture source image.
type Rect struct {
	X, Y          int
	Width, Height int
}

func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Right is the exclusive right edge.
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom is the exclusive bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
