package pathdata

// Point is an absolute position in the path's user space.
type Point struct {
	X, Y float64
}

// Endpoints walks the commands and returns the absolute start point (the
// first moveto) and the last explicit end point. Closepath moves the pen
// back to the subpath start for the commands that follow, but draws no new
// end point, so a closed series still ends at its last data point.
func Endpoints(cmds []Command) (first, last Point, ok bool) {
	if len(cmds) == 0 {
		return Point{}, Point{}, false
	}

	var cur, sub Point
	for i, c := range cmds {
		closing := false
		a := c.Args
		rel := !c.Absolute()
		switch upper(c.Op) {
		case 'M':
			cur = move(cur, a[0], a[1], rel)
			sub = cur
			if i == 0 {
				first = cur
			}
		case 'L', 'T':
			cur = move(cur, a[0], a[1], rel)
		case 'H':
			if rel {
				cur.X += a[0]
			} else {
				cur.X = a[0]
			}
		case 'V':
			if rel {
				cur.Y += a[0]
			} else {
				cur.Y = a[0]
			}
		case 'C':
			cur = move(cur, a[4], a[5], rel)
		case 'S', 'Q':
			cur = move(cur, a[2], a[3], rel)
		case 'A':
			cur = move(cur, a[5], a[6], rel)
		case 'Z':
			cur = sub
			closing = true
		default:
			return Point{}, Point{}, false
		}
		if !closing {
			last = cur
		}
	}
	return first, last, true
}

func move(cur Point, x, y float64, rel bool) Point {
	if rel {
		return Point{cur.X + x, cur.Y + y}
	}
	return Point{x, y}
}

// XExtent returns the absolute x coordinate of the path's first moveto and
// of its last explicit end point. ok is false for empty or unparseable data, so
// callers can skip work instead of failing.
func XExtent(d string) (first, last float64, ok bool) {
	cmds, err := Parse(d)
	if err != nil {
		return 0, 0, false
	}
	p0, p1, ok := Endpoints(cmds)
	if !ok {
		return 0, 0, false
	}
	return p0.X, p1.X, true
}

// Vertices returns the absolute end points and control points of every
// command. Arcs contribute their end points only.
func Vertices(cmds []Command) []Point {
	var (
		out      []Point
		cur, sub Point
	)
	for _, c := range cmds {
		a := c.Args
		rel := !c.Absolute()
		switch upper(c.Op) {
		case 'M':
			cur = move(cur, a[0], a[1], rel)
			sub = cur
			out = append(out, cur)
		case 'L', 'T':
			cur = move(cur, a[0], a[1], rel)
			out = append(out, cur)
		case 'H':
			if rel {
				cur.X += a[0]
			} else {
				cur.X = a[0]
			}
			out = append(out, cur)
		case 'V':
			if rel {
				cur.Y += a[0]
			} else {
				cur.Y = a[0]
			}
			out = append(out, cur)
		case 'C':
			out = append(out, move(cur, a[0], a[1], rel), move(cur, a[2], a[3], rel))
			cur = move(cur, a[4], a[5], rel)
			out = append(out, cur)
		case 'S', 'Q':
			out = append(out, move(cur, a[0], a[1], rel))
			cur = move(cur, a[2], a[3], rel)
			out = append(out, cur)
		case 'A':
			cur = move(cur, a[5], a[6], rel)
			out = append(out, cur)
		case 'Z':
			cur = sub
		}
	}
	return out
}
