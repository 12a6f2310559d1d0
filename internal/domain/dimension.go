package domain

import "fmt"

// Dimension is a width x height pair in pixels. It is a value type: assigning
// it into a profile copies it, so later changes to the caller's variable never
// reach the stored configuration.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func NewDimension(width, height int) Dimension {
	return Dimension{Width: width, Height: height}
}

// Valid reports whether both sides are strictly positive.
func (d Dimension) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}
