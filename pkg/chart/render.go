package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/chartsnap/pkg/scene"
	"github.com/matzehuels/chartsnap/pkg/sink"
)

// Margins around the plot area.
const (
	marginTop    = 20
	marginRight  = 20
	marginBottom = 40
	marginLeft   = 50

	marginX = marginLeft + marginRight
	marginY = marginTop + marginBottom
)

const (
	dataColor = "steelblue"
	yTicks    = 5
)

// layout maps data to plot coordinates.
type layout struct {
	innerW, innerH float64
	yMax           float64
	n              int
	padding        float64
}

func newLayout(s Settings, data []Point) layout {
	l := layout{
		innerW:  float64(s.Width - marginX),
		innerH:  float64(s.Height - marginY),
		yMax:    100,
		n:       len(data),
		padding: s.Padding,
	}
	for _, p := range data {
		l.yMax = math.Max(l.yMax, p.Y)
	}
	return l
}

func (l layout) y(v float64) float64 {
	return l.innerH - v/l.yMax*l.innerH
}

// band returns the left edge and width of bar i.
func (l layout) band(i int) (x, w float64) {
	step := l.innerW / (float64(l.n) + l.padding)
	return step*l.padding + float64(i)*step, step * (1 - l.padding)
}

// point returns the x of line point i.
func (l layout) point(i int) float64 {
	if l.n < 2 {
		return l.innerW / 2
	}
	return float64(i) * l.innerW / float64(l.n-1)
}

// center returns the x of category i's center.
func (l layout) center(kind Kind, i int) float64 {
	if kind == Line {
		return l.point(i)
	}
	x, w := l.band(i)
	return x + w/2
}

// Render writes the chart as SVG. When edge holds an encoded image it is
// drawn on top of every mark.
func Render(w io.Writer, s Settings, data []Point, edge []byte) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l := newLayout(s, data)
	c := svg.New(w)
	c.Start(s.Width, s.Height)
	c.Gtransform(fmt.Sprintf("translate(%d,%d)", marginLeft, marginTop))

	xAxis(c, s.Kind, l, data)
	yAxis(c, l)

	c.Group(`class="chart-vis-group"`)
	switch s.Kind {
	case Bar:
		bars(c, l, data)
	case Line:
		line(c, s, l, data)
	}
	if len(edge) > 0 {
		edges(c, s, l, data, edge)
	}
	c.Gend()

	c.Gend()
	c.End()
	return nil
}

// RenderScene renders straight into a scene.
func RenderScene(s Settings, data []Point, edge []byte) (*scene.Scene, error) {
	var buf bytes.Buffer
	if err := Render(&buf, s, data, edge); err != nil {
		return nil, err
	}
	return scene.Parse(&buf)
}

func xAxis(c *svg.SVG, kind Kind, l layout, data []Point) {
	c.Group(`class="x-axis"`, fmt.Sprintf(`transform="translate(0,%s)"`, num(l.innerH)))
	c.Path("M0,0H"+num(l.innerW), `class="domain"`, `stroke="black"`, `fill="none"`)
	for i, p := range data {
		c.Group(`class="tick"`, fmt.Sprintf(`transform="translate(%s,0)"`, num(l.center(kind, i))))
		c.Line(0, 0, 0, 6, `stroke="black"`)
		c.Text(0, 18, p.Label, `text-anchor="middle"`, `font-size="10"`)
		c.Gend()
	}
	c.Gend()
}

func yAxis(c *svg.SVG, l layout) {
	c.Group(`class="y-axis"`)
	c.Path("M0,"+num(l.innerH)+"V0", `class="domain"`, `stroke="black"`, `fill="none"`)
	for i := 0; i <= yTicks; i++ {
		v := l.yMax * float64(i) / yTicks
		c.Group(`class="tick"`, fmt.Sprintf(`transform="translate(0,%s)"`, num(l.y(v))))
		c.Line(-6, 0, 0, 0, `stroke="black"`)
		c.Text(-9, 3, strconv.Itoa(int(math.Round(v))), `text-anchor="end"`, `font-size="10"`)
		c.Gend()
	}
	c.Gend()
}

func bars(c *svg.SVG, l layout, data []Point) {
	c.Group(`class="bars-group"`)
	for i, p := range data {
		x, w := l.band(i)
		top := l.y(p.Y)
		c.Rect(round(x), round(top), round(w), round(l.innerH-top), `class="bar"`, `fill="`+dataColor+`"`)
	}
	c.Gend()
}

func line(c *svg.SVG, s Settings, l layout, data []Point) {
	var d strings.Builder
	for i, p := range data {
		if i == 0 {
			d.WriteString("M")
		} else {
			d.WriteString("L")
		}
		d.WriteString(num(l.point(i)) + "," + num(l.y(p.Y)))
	}
	if s.Fill {
		area := d.String() + "L" + num(l.point(len(data)-1)) + "," + num(l.innerH) + "L0," + num(l.innerH) + "Z"
		c.Path(area, `class="area"`, `fill="`+dataColor+`"`, `fill-opacity="0.3"`)
	}
	c.Path(d.String(), `class="line"`, `fill="none"`, `stroke="`+dataColor+`"`, `stroke-width="2"`)
	if s.Markers {
		for i, p := range data {
			c.Circle(round(l.point(i)), round(l.y(p.Y)), 3, `class="point"`, `fill="`+dataColor+`"`)
		}
	}
}

// edges places the edge image on each mark: centered on the bar top, or on
// the line point, with width scaled by s.Scale.
func edges(c *svg.SVG, s Settings, l layout, data []Point, edge []byte) {
	href := sink.EncodeDataURI(http.DetectContentType(edge), edge)
	_, bw := l.band(0)
	if s.Kind == Line {
		bw = l.innerW / float64(max(l.n, 2))
	}
	iw := bw * s.Scale
	ih := iw / 2
	for i, p := range data {
		cx := l.center(s.Kind, i)
		top := l.y(p.Y)
		c.Image(round(cx-iw/2), round(top-ih), round(iw), round(ih), href, `class="overlay"`, `preserveAspectRatio="none"`)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
