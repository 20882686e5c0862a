package models

import "time"

// WebVital is a single Core Web Vitals measurement reported by a browser.
type WebVital struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Rating    string    `json:"rating"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// WebVitalSummary aggregates measurements of one metric over a window.
type WebVitalSummary struct {
	Name             string  `json:"name"`
	Count            int     `json:"count"`
	Average          float64 `json:"average"`
	P75              float64 `json:"p75"`
	Good             int     `json:"good"`
	NeedsImprovement int     `json:"needs_improvement"`
	Poor             int     `json:"poor"`
}

// KnownWebVitals lists the metric names accepted by the beacon endpoint.
var KnownWebVitals = map[string]bool{
	"LCP":  true,
	"FID":  true,
	"CLS":  true,
	"INP":  true,
	"TTFB": true,
	"FCP":  true,
}
