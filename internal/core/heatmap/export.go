package heatmap

import (
	"cmp"
	"slices"
)

// Export defaults
const (
	DefaultGrid = 25
	DefaultTopN = 10
)

// ExportOptions shapes an export. Empty Kinds means click, move and hover
type ExportOptions struct {
	Grid  int    `json:"grid"`
	TopN  int    `json:"top_n"`
	Kinds []Kind `json:"kinds,omitempty"`
}

// Point is one grid cell; Intensity is Value scaled to the hottest cell
type Point struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Value     int     `json:"value"`
	Intensity float64 `json:"intensity"`
}

// TopElement ranks elements by clicks
type TopElement struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag,omitempty"`
	Text     string `json:"text,omitempty"`
	Clicks   int    `json:"clicks"`
}

// Export is the renderable heatmap
type Export struct {
	Samples     int          `json:"samples"`
	Points      []Point      `json:"points"`
	TopElements []TopElement `json:"top_elements"`
}

// Export aggregates the current buffer
func (c *Collector) Export(opt ExportOptions) Export { return Aggregate(c.Samples(), opt) }

// Aggregate buckets samples into grid cells and ranks clicked elements
func Aggregate(samples []Sample, opt ExportOptions) Export {
	if opt.Grid <= 0 {
		opt.Grid = DefaultGrid
	}
	if opt.TopN <= 0 {
		opt.TopN = DefaultTopN
	}
	kinds := opt.Kinds
	if len(kinds) == 0 {
		kinds = []Kind{KindClick, KindMove, KindHover}
	}

	type cell struct{ x, y int }
	counts := map[cell]int{}
	peak := 0
	for _, s := range samples {
		if !slices.Contains(kinds, s.Kind) {
			continue
		}
		k := cell{floorDiv(s.X, opt.Grid) * opt.Grid, floorDiv(s.Y, opt.Grid) * opt.Grid}
		counts[k]++
		peak = max(peak, counts[k])
	}

	points := make([]Point, 0, len(counts))
	for k, v := range counts {
		points = append(points, Point{X: k.x, Y: k.y, Value: v, Intensity: float64(v) / float64(peak)})
	}
	slices.SortFunc(points, func(a, b Point) int {
		return cmp.Or(cmp.Compare(b.Value, a.Value), cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})

	return Export{Samples: len(samples), Points: points, TopElements: TopElements(samples, opt.TopN)}
}

// TopElements returns the n most clicked selectors
func TopElements(samples []Sample, n int) []TopElement {
	idx := map[string]int{}
	var out []TopElement
	for _, s := range samples {
		if s.Kind != KindClick || s.Selector == "" {
			continue
		}
		i, ok := idx[s.Selector]
		if !ok {
			i = len(out)
			idx[s.Selector] = i
			out = append(out, TopElement{Selector: s.Selector, Tag: s.Tag, Text: s.Text})
		}
		out[i].Clicks++
	}
	slices.SortStableFunc(out, func(a, b TopElement) int { return cmp.Compare(b.Clicks, a.Clicks) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
