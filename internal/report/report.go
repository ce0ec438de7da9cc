package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/template"
	"time"

	"github.com/FranksOps/shopscout/internal/survey"
)

// RegionSummary is one region's line in the report.
type RegionSummary struct {
	Region    string `json:"region"`
	Pages     int    `json:"pages"`
	Fetched   int    `json:"fetched"`
	Kept      int    `json:"kept"`
	Rows      int    `json:"rows"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Summary contains aggregated figures about a survey run.
type Summary struct {
	RunID            string          `json:"run_id"`
	RegionsTotal     int             `json:"regions_total"`
	RegionsFailed    int             `json:"regions_failed"`
	RegionsTruncated int             `json:"regions_truncated"`
	TotalPages       int             `json:"total_pages"`
	TotalFetched     int             `json:"total_fetched"`
	TotalRows        int             `json:"total_rows"`
	Regions          []RegionSummary `json:"regions"`
	Attributions     []string        `json:"attributions,omitempty"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	Duration         time.Duration   `json:"duration_ns"`
}

// GenerateSummary aggregates the outcomes of a run that spanned start to end.
func GenerateSummary(runID string, outcomes []*survey.Outcome, start, end time.Time) Summary {
	s := Summary{
		RunID:     runID,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}

	for _, o := range outcomes {
		if o == nil {
			continue
		}
		s.RegionsTotal++

		rs := RegionSummary{
			Region: string(o.Region),
			Kept:   len(o.Ranked),
			Rows:   o.Rows,
		}
		if o.Result != nil {
			rs.Pages = o.Result.Pages()
			rs.Fetched = len(o.Result.Matches)
			rs.Truncated = o.Result.Truncated
			for _, a := range o.Result.Attributions {
				if !slices.Contains(s.Attributions, a) {
					s.Attributions = append(s.Attributions, a)
				}
			}
		}
		if o.Err != nil {
			rs.Error = o.Err.Error()
			s.RegionsFailed++
		}
		if rs.Truncated {
			s.RegionsTruncated++
		}

		s.TotalPages += rs.Pages
		s.TotalFetched += rs.Fetched
		s.TotalRows += rs.Rows
		s.Regions = append(s.Regions, rs)
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report json: %w", err)
	}
	return nil
}

var textReport = template.Must(template.New("textReport").Parse(`Shopscout Survey Summary
------------------------
Run:        {{.RunID}}
Time:       {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:   {{.Duration}}
Regions:    {{.RegionsTotal}} ({{.RegionsFailed}} failed, {{.RegionsTruncated}} truncated)
Pages:      {{.TotalPages}}
Fetched:    {{.TotalFetched}} matches
Written:    {{.TotalRows}} rows

Regions:
{{- range .Regions}}
  {{.Region}}: {{if .Error}}FAILED {{.Error}}{{else}}{{.Rows}} rows from {{.Fetched}} matches over {{.Pages}} pages{{if .Truncated}} (page limit reached){{end}}{{end}}
{{- else}}
  None
{{- end}}
{{- if .Attributions}}

Attributions:
{{- range .Attributions}}
  {{.}}
{{- end}}
{{- end}}
`))

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	if err := textReport.Execute(w, summary); err != nil {
		return fmt.Errorf("report text: %w", err)
	}
	return nil
}
