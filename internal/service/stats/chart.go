package stats

// Default series color when a data source declares none.
const DefaultColor = "#1565c0"

// Note series colors.
const (
	ColorOpen   = "#e53935"
	ColorClosed = "#43a047"
)

// Chart kinds.
const (
	KindLine = "line"
	KindBar  = "bar"
)

// Point is one chart sample. T is a date or a label.
type Point struct {
	T string  `json:"t"`
	Y float64 `json:"y"`
}

// Series is a labeled list of points.
type Series struct {
	Label string  `json:"label"`
	Color string  `json:"color"`
	Data  []Point `json:"data"`
}

// Chart is one chart of the statistics page.
type Chart struct {
	ID     string   `json:"id"`
	Kind   string   `json:"type"`
	Labels []string `json:"labels,omitempty"`
	Series []Series `json:"series"`
}

// ChartKey is the response key whose values are concatenated across fragments.
const ChartKey = "chart"

// Fragment is the contribution of one fetch to the statistics response.
type Fragment struct {
	Fields map[string]any
	Charts []Chart
}

// Merge unions the fields of all fragments and concatenates their charts in argument order.
// The chart key is always present.
func Merge(fragments ...Fragment) map[string]any {
	out := map[string]any{}
	charts := []Chart{}

	for _, f := range fragments {
		for k, v := range f.Fields {
			if k == ChartKey {
				continue
			}
			out[k] = v
		}
		charts = append(charts, f.Charts...)
	}

	out[ChartKey] = charts
	return out
}

func colorOr(color string) string {
	if color == "" {
		return DefaultColor
	}
	return color
}
