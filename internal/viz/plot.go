package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nbody/internal/dynamo"
)

// PlotEnergy renders energy samples as an ASCII chart. It returns an empty
// string when there is nothing to plot. A single sample or a flat series is
// printed as its value, since the chart axis would not show it.
func PlotEnergy(samples []dynamo.Sample, caption string) string {
	if len(samples) == 0 {
		return ""
	}

	data := make([]float64, len(samples))
	lo, hi := samples[0].Energy, samples[0].Energy
	for i, smp := range samples {
		data[i] = smp.Energy
		lo = min(lo, smp.Energy)
		hi = max(hi, smp.Energy)
	}

	if len(samples) < 2 || lo == hi {
		return fmt.Sprintf("%s\nenergy %.9f (constant over %d sample(s))", caption, lo, len(samples))
	}

	return asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Precision(9),
		asciigraph.Caption(caption),
	)
}
