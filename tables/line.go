package tables

// Shape names the named curve a Line travels from v0 to vt.
type Shape int

const (
	ShapeHor Shape = iota
	ShapeLin
	ShapeSin
	ShapeExp
	ShapeLog
	ShapeXpe
	ShapeLge
)

func (s Shape) String() string {
	switch s {
	case ShapeHor:
		return "hor"
	case ShapeLin:
		return "lin"
	case ShapeSin:
		return "sin"
	case ShapeExp:
		return "exp"
	case ShapeLog:
		return "log"
	case ShapeXpe:
		return "xpe"
	case ShapeLge:
		return "lge"
	default:
		return "?"
	}
}

// ParseShape maps a shape name to its Shape constant.
func ParseShape(name string) (Shape, bool) {
	switch name {
	case "hor":
		return ShapeHor, true
	case "lin":
		return ShapeLin, true
	case "sin":
		return ShapeSin, true
	case "exp":
		return ShapeExp, true
	case "log":
		return ShapeLog, true
	case "xpe":
		return ShapeXpe, true
	case "lge":
		return ShapeLge, true
	default:
		return 0, false
	}
}

// sin-shape polynomial constants: 0.5 + x*(c0 + x^2*(c1 + x^2*c2)),
// x = pos/time - 0.5.
const (
	sinC0 = 1.5702137061703461
	sinC1 = -2.568278787380814
	sinC2 = 1.1496958507977183
)

func sinShape(t float64) float64 {
	x := t - 0.5
	x2 := x * x
	return 0.5 + x*(sinC0+x2*(sinC1+x2*sinC2))
}

// xpeLgeF is the shared capacitor-curve polynomial used by xpe and lge.
func xpeLgeF(x float64) float64 {
	x2 := x * x
	x3 := x2 * x
	return x3 + (x2*x3-x2)*(x*629.0/1792.0+x2*1163.0/1792.0)
}

func xpeShape(v0, vt, t float64) float64 {
	return vt + (v0-vt)*xpeLgeF(1-t)
}

func lgeShape(v0, vt, t float64) float64 {
	return v0 + (vt-v0)*xpeLgeF(t)
}

// valueAt evaluates the named shape at fractional position t = pos/time
// in [0,1].
func valueAt(shape Shape, v0, vt, t float64) float64 {
	switch shape {
	case ShapeHor:
		return v0
	case ShapeLin:
		return v0 + (vt-v0)*t
	case ShapeSin:
		// The polynomial is off by rounding at its ends; pin them.
		if t <= 0 {
			return v0
		}
		if t >= 1 {
			return vt
		}
		return v0 + (vt-v0)*sinShape(t)
	case ShapeXpe:
		return xpeShape(v0, vt, t)
	case ShapeLge:
		return lgeShape(v0, vt, t)
	case ShapeExp:
		if v0 > vt {
			return xpeShape(v0, vt, t)
		}
		return lgeShape(v0, vt, t)
	case ShapeLog:
		if v0 < vt {
			return xpeShape(v0, vt, t)
		}
		return lgeShape(v0, vt, t)
	default:
		return v0
	}
}

// Fill writes len values along shape from v0 at position 0 to vt at
// position time, starting at pos, into buf (len(buf) == len). If mulbuf
// is non-nil, each value is multiplied element-wise by it.
func Fill(buf []float64, shape Shape, v0, vt float64, pos, time int, mulbuf []float64) {
	for i := range buf {
		p := pos + i
		var t float64
		if time <= 0 {
			t = 1
		} else {
			t = float64(p) / float64(time)
		}
		if t > 1 {
			t = 1
		}
		v := valueAt(shape, v0, vt, t)
		if mulbuf != nil {
			v *= mulbuf[i]
		}
		buf[i] = v
	}
}

// Flag bits describing which Line fields are explicitly set.
type Flag int

const (
	FlagStateSet Flag = 1 << iota
	FlagGoalSet
	FlagShapeSet
	FlagTimeSet
)

// Line is a timed trajectory from v0 to vt along a named Shape.
type Line struct {
	V0    float64
	Vt    float64
	Pos   int
	End   int // end position in samples
	Shape Shape
	Flags Flag
}

// NewLine creates a Line at its default (hor, value 0) state.
func NewLine() *Line {
	return &Line{Shape: ShapeHor}
}

// HasGoal reports whether a goal is still pending (pos < end, goal set).
func (l *Line) HasGoal() bool {
	return l.Flags&FlagGoalSet != 0 && l.Pos < l.End
}

// Get fills buf (up to len(buf) values, or fewer if the goal boundary is
// reached first) and returns the number of values written. Returns 0 if
// no goal is pending.
func (l *Line) Get(buf []float64, mulbuf []float64) int {
	if !l.HasGoal() {
		return 0
	}
	remaining := l.End - l.Pos
	n := len(buf)
	if remaining < n {
		n = remaining
	}
	var mb []float64
	if mulbuf != nil {
		mb = mulbuf[:n]
	}
	Fill(buf[:n], l.Shape, l.V0, l.Vt, l.Pos, l.End, mb)
	l.Pos += n
	if l.Pos >= l.End {
		l.V0 = l.Vt
		l.Flags &^= FlagGoalSet
	}
	return n
}

// Run fills the full len(buf), promoting vt into v0 on completion, and
// returns whether the line is still active (a goal is still pending).
func (l *Line) Run(buf []float64, mulbuf []float64) bool {
	n := l.Get(buf, mulbuf)
	for n < len(buf) {
		// goal boundary reached mid-buffer: hold at the new v0 for the
		// remainder of this call.
		rest := buf[n:]
		for i := range rest {
			v := l.V0
			if mulbuf != nil {
				v *= mulbuf[n+i]
			}
			rest[i] = v
		}
		break
	}
	return l.HasGoal()
}

// Skip advances the line by n samples without producing output, as if
// Get had been called and discarded. Returns whether the line is still
// active afterward.
func (l *Line) Skip(n int) bool {
	if !l.HasGoal() {
		return false
	}
	l.Pos += n
	if l.Pos >= l.End {
		l.V0 = l.Vt
		l.Flags &^= FlagGoalSet
		l.Pos = l.End
	}
	return l.HasGoal()
}

// Update is an incoming overlay applied to a Line's state via Merge; only
// fields whose Flags bit is set take effect, so a partial update (e.g.
// just a new target) preserves everything else.
type Update struct {
	V0, Vt     float64
	Shape      Shape
	TimeMs     float64
	Flags      Flag
	DefaultEnd int // samples, used when GoalSet but not TimeSet
}

// Merge overlays upd onto the line's state, field by field, per the
// flags upd declares. srate converts TimeMs to a sample count when
// TimeSet is present.
func (l *Line) Merge(upd Update, srate float64) {
	if upd.Flags&FlagStateSet != 0 {
		l.V0 = upd.V0
		l.Pos = 0
	}
	if upd.Flags&FlagShapeSet != 0 {
		l.Shape = upd.Shape
	}
	var endSamples int
	hasTime := upd.Flags&FlagTimeSet != 0
	if hasTime {
		endSamples = int(upd.TimeMs * srate / 1000.0)
	} else {
		endSamples = upd.DefaultEnd
	}
	if upd.Flags&FlagGoalSet != 0 {
		l.Vt = upd.Vt
		l.End = endSamples
		l.Pos = 0
		l.Flags |= FlagGoalSet
		if hasTime {
			l.Flags |= FlagTimeSet
		}
	}
}
