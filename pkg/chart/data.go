package chart

import (
	"math"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// Trend is the shape of generated data.
type Trend string

const (
	Linear      Trend = "linear"
	Exponential Trend = "exponential"
	Logarithmic Trend = "logarithmic"
	Sinusoidal  Trend = "sinusoidal"
)

// Trends lists every generator.
var Trends = []Trend{Linear, Exponential, Logarithmic, Sinusoidal}

// MinPoints and MaxPoints bound generated series.
const (
	MinPoints = 2
	MaxPoints = 60
)

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseTrend accepts a trend name.
func ParseTrend(s string) (Trend, error) {
	t := Trend(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Trends {
		if t == known {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown trend %q (must be one of: linear, exponential, logarithmic, sinusoidal)", s)
}

// Point is one datum.
type Point struct {
	Label string
	Y     float64
}

// Generate returns n points following trend. Values are whole numbers in
// roughly 0-200.
func Generate(trend Trend, n int) ([]Point, error) {
	if n < MinPoints || n > MaxPoints {
		return nil, errors.New(errors.ErrCodeInvalidInput, "points must be between %d and %d, got %d", MinPoints, MaxPoints, n)
	}
	var f func(i int) float64
	last := float64(n - 1)
	switch trend {
	case Linear:
		f = func(i int) float64 { return 10 + float64(i)*90/last }
	case Exponential:
		f = func(i int) float64 { return 10 * math.Exp(3*float64(i)/last) }
	case Logarithmic:
		f = func(i int) float64 { return 30 * math.Log(10*float64(i+1)/float64(n)+1) }
	case Sinusoidal:
		f = func(i int) float64 { return 40*math.Sin(2*math.Pi*float64(i)/last) + 50 }
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown trend %q", trend)
	}
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{Label: months[i%len(months)], Y: math.Floor(f(i))}
	}
	return pts, nil
}
