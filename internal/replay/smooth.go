package replay

import (
	"fmt"
	"strings"

	"airkvm/internal/input"
)

// MoveType is the largest per-axis distance the cursor travels in one
// injected step. Immediate jumps straight to the target.
type MoveType uint8

const (
	Immediate MoveType = 0
	Smooth    MoveType = 1
	Faster    MoveType = 2
	VeryFast  MoveType = 3
)

func (m MoveType) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Smooth:
		return "smooth"
	case Faster:
		return "faster"
	case VeryFast:
		return "veryfast"
	default:
		return fmt.Sprintf("MoveType(%d)", uint8(m))
	}
}

// ParseMoveType accepts the names returned by MoveType.String.
func ParseMoveType(s string) (MoveType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate":
		return Immediate, nil
	case "smooth":
		return Smooth, nil
	case "faster", "":
		return Faster, nil
	case "veryfast", "very_fast", "very-fast":
		return VeryFast, nil
	default:
		return Immediate, fmt.Errorf("unknown move type %q", s)
	}
}

// SmoothMove returns the absolute positions the cursor passes through going
// from current to target. Each axis advances by at most step per point, so
// the path has ceil(max(|dx|,|dy|)/step) points and ends exactly at target.
// An Immediate step yields target alone. A zero-length move yields nothing
// unless step is Immediate.
func SmoothMove(current, target input.Point, step MoveType) []input.Point {
	if step == Immediate {
		return []input.Point{target}
	}
	n := pathLen(current, target, step)
	points := make([]input.Point, 0, n)
	x, y := int64(current.X), int64(current.Y)
	tx, ty := int64(target.X), int64(target.Y)
	s := int64(step)
	for x != tx || y != ty {
		x += advance(tx-x, s)
		y += advance(ty-y, s)
		points = append(points, input.Point{X: int32(x), Y: int32(y)})
	}
	return points
}

// pathLen is the number of points SmoothMove returns.
func pathLen(current, target input.Point, step MoveType) int64 {
	if step == Immediate {
		return 1
	}
	d := max(abs(int64(target.X)-int64(current.X)), abs(int64(target.Y)-int64(current.Y)))
	s := int64(step)
	return (d + s - 1) / s
}

func advance(remaining, step int64) int64 {
	switch {
	case remaining > step:
		return step
	case remaining < -step:
		return -step
	default:
		return remaining
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
