package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbody/internal/physics"
)

// Track is the sampled x/y path of one body.
type Track struct {
	Name   string
	Points []r3.Vec
}

var trackColors = []string{"#ffcc00", "#ff8844", "#ddbb77", "#66ccff", "#4466ff"}

// Trace advances sys steps times at dt and records every body's position
// every `every` steps, including the initial and final positions.
func Trace(sys *physics.System, steps int, dt float64, every int) []Track {
	if every < 1 {
		every = 1
	}

	bodies := sys.Bodies()
	tracks := make([]Track, len(bodies))
	for i := range tracks {
		name := fmt.Sprintf("body%d", i)
		if i < len(physics.Names) {
			name = physics.Names[i]
		}
		tracks[i].Name = name
	}

	record := func() {
		for i, b := range sys.Bodies() {
			tracks[i].Points = append(tracks[i].Points, b.Pos)
		}
	}

	record()
	for step := 1; step <= steps; step++ {
		sys.Advance(dt)
		if step%every == 0 || step == steps {
			record()
		}
	}

	return tracks
}

// OrbitsSVG writes a top-down view of the tracks, centered on the origin and
// scaled to the outermost point.
func OrbitsSVG(w io.Writer, tracks []Track, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid svg size: %d", size)
	}

	extent := 0.0
	for _, t := range tracks {
		for _, p := range t.Points {
			extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		}
	}
	if extent == 0 || math.IsNaN(extent) || math.IsInf(extent, 0) {
		extent = 1
	}
	extent *= 1.1

	half := float64(size) / 2
	project := func(p r3.Vec) (float64, float64) {
		return half + p.X/extent*half, half - p.Y/extent*half
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	for i, t := range tracks {
		if len(t.Points) == 0 {
			continue
		}
		color := trackColors[i%len(trackColors)]

		if len(t.Points) > 1 {
			fmt.Fprintf(&sb, `<path id="%s" fill="none" stroke="%s" stroke-width="1" d="`, t.Name, color)
			for j, p := range t.Points {
				x, y := project(p)
				if j == 0 {
					fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		x, y := project(t.Points[len(t.Points)-1])
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"><title>%s</title></circle>
`, x, y, color, t.Name)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
