// Package interact translates pointer gestures reported by a host UI into
// candidate time ranges. It owns no event loop: the host forwards the
// selectStart, selecting, select, click and doubleClick callbacks of its
// gesture recognizer together with the current container bounds.
package interact

import "math"

// Point is a pointer position in container pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a bounding box in container pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r Rect) Width() float64  { return math.Abs(r.Right - r.Left) }
func (r Rect) Height() float64 { return math.Abs(r.Bottom - r.Top) }

// PointInBox reports whether p lies inside r, edges included.
func PointInBox(r Rect, p Point) bool {
	return p.Y >= r.Top && p.Y <= r.Bottom && p.X >= r.Left && p.X <= r.Right
}

// SlotAtX returns the cell under x in a row split into n equal cells.
// Positions left or right of the row snap to the nearest edge cell.
func SlotAtX(row Rect, x float64, rtl bool, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	if w := row.Width() / float64(n); w > 0 {
		i = int(math.Floor((x - row.Left) / w))
	}
	i = max(0, min(i, n-1))
	if rtl {
		i = n - 1 - i
	}
	return i
}
