package models

import (
	"html/template"
	"time"
)

// Chart labels, in the order charts are produced.
const (
	ChartHistogram = "Histogram"
	ChartScatter   = "Scatter Plot"
	ChartBar       = "Bar Chart"
)

// Chart is a rendered chart image.
type Chart struct {
	Label string `json:"label"`
	Title string `json:"title"`
	Path  string `json:"-"`   // location inside the static filesystem
	URL   string `json:"url"` // public URL the image is served from
}

// AnalysisResult is everything the result page shows for one upload.
type AnalysisResult struct {
	RequestID          string        `json:"request_id"`
	Filename           string        `json:"filename"`
	Rows               int           `json:"rows"`
	Columns            []string      `json:"columns"`
	NumericColumns     []string      `json:"numeric_columns"`
	CategoricalColumns []string      `json:"categorical_columns"`
	StatsHTML          template.HTML `json:"-"`
	Charts             []Chart       `json:"charts"`
}

// AnalysisEvent is published once an upload has been analyzed.
type AnalysisEvent struct {
	RequestID  string    `json:"request_id"`
	User       string    `json:"user"`
	Filename   string    `json:"filename"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	Charts     []string  `json:"charts"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}
