package input

// Size is a surface or display size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scaler maps capture surface coordinates to target display coordinates.
type Scaler interface {
	Scale(x, y float64) (float64, float64)
}

// ScaleFunc adapts a function to the Scaler interface.
type ScaleFunc func(x, y float64) (float64, float64)

func (f ScaleFunc) Scale(x, y float64) (float64, float64) { return f(x, y) }

// Identity leaves coordinates untouched.
var Identity Scaler = ScaleFunc(func(x, y float64) (float64, float64) { return x, y })

// RatioScaler stretches each axis of from onto to. A zero-sized from or to
// yields Identity.
func RatioScaler(from, to Size) Scaler {
	if from.Width <= 0 || from.Height <= 0 || to.Width <= 0 || to.Height <= 0 {
		return Identity
	}
	rx := float64(to.Width) / float64(from.Width)
	ry := float64(to.Height) / float64(from.Height)
	return ScaleFunc(func(x, y float64) (float64, float64) {
		return x * rx, y * ry
	})
}

// ScaleEvent applies s to the coordinates of enter and motion events; other
// events pass through unchanged.
func ScaleEvent(s Scaler, ev RawEvent) RawEvent {
	if s == nil {
		return ev
	}
	switch ev.Kind {
	case RawPointerEnter, RawPointerMotion:
		ev.X, ev.Y = s.Scale(ev.X, ev.Y)
	}
	return ev
}
