package domain

import (
	"encoding/json"
	"time"
)

// ChartPoint is one (date, value) pair of a series
type ChartPoint struct {
	Date  time.Time
	Value float64
}

// MarshalJSON encodes the point as {"date":"YYYY-MM-DD","value":n}
func (p ChartPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}{FormatDate(p.Date), p.Value})
}

// ChartSeries is an ordered sequence of points, ascending by date
type ChartSeries []ChartPoint

// Dates returns the x values in YYYY-MM-DD form
func (s ChartSeries) Dates() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = FormatDate(p.Date)
	}
	return out
}

// Values returns the y values
func (s ChartSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Presentation holds the rendering hints for a chart
type Presentation struct {
	TraceType     string  `json:"trace_type"`
	HoverTemplate string  `json:"hover_template,omitempty"`
	YTickPrefix   string  `json:"y_tick_prefix,omitempty"`
	Color         string  `json:"color"`
	TitleX        float64 `json:"title_x"`
	TitleAnchor   string  `json:"title_anchor"`
	FixedRange    bool    `json:"fixed_range"`
}

// Chart is a declarative chart descriptor: a title, a series and presentation hints
type Chart struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Series       ChartSeries  `json:"series"`
	Presentation Presentation `json:"presentation"`
}

// Len returns the number of points in the chart
func (c Chart) Len() int {
	return len(c.Series)
}

// Figure is a Plotly-compatible figure (data + layout)
type Figure struct {
	Data   []Trace      `json:"data"`
	Layout FigureLayout `json:"layout"`
}

// Trace is a single Plotly trace
type Trace struct {
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	Type          string    `json:"type"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
}

// FigureLayout is the Plotly layout subset used by the dashboard
type FigureLayout struct {
	Title    FigureTitle `json:"title"`
	XAxis    FigureAxis  `json:"xaxis"`
	YAxis    FigureAxis  `json:"yaxis"`
	Colorway []string    `json:"colorway"`
}

// FigureTitle positions the chart title
type FigureTitle struct {
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	XAnchor string  `json:"xanchor"`
}

// FigureAxis configures one axis
type FigureAxis struct {
	TickPrefix string `json:"tickprefix,omitempty"`
	FixedRange bool   `json:"fixedrange"`
}

// Figure converts the chart into a Plotly figure
func (c Chart) Figure() Figure {
	return Figure{
		Data: []Trace{{
			X:             c.Series.Dates(),
			Y:             c.Series.Values(),
			Type:          c.Presentation.TraceType,
			HoverTemplate: c.Presentation.HoverTemplate,
		}},
		Layout: FigureLayout{
			Title: FigureTitle{
				Text:    c.Title,
				X:       c.Presentation.TitleX,
				XAnchor: c.Presentation.TitleAnchor,
			},
			XAxis:    FigureAxis{FixedRange: c.Presentation.FixedRange},
			YAxis:    FigureAxis{TickPrefix: c.Presentation.YTickPrefix, FixedRange: c.Presentation.FixedRange},
			Colorway: []string{c.Presentation.Color},
		},
	}
}

// ChartPair is the result of one render: the price chart and the volume chart
type ChartPair struct {
	Price  Chart `json:"price_chart"`
	Volume Chart `json:"volume_chart"`
}

// Option is one selectable dropdown entry
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DashboardOptions describes what the filter widgets may offer
type DashboardOptions struct {
	Regions  []Option    `json:"regions"`
	Types    []Option    `json:"types"`
	Bounds   DateBounds  `json:"date_bounds"`
	Defaults FilterQuery `json:"defaults"`
}

// DatasetSummary describes a loaded dataset
type DatasetSummary struct {
	Source   string     `json:"source"`
	Rows     int        `json:"rows"`
	Regions  int        `json:"regions"`
	Types    int        `json:"types"`
	Bounds   DateBounds `json:"date_bounds"`
	LoadedAt time.Time  `json:"loaded_at"`
}
