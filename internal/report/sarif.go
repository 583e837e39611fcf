package report

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

const (
	sarifVersion = "2.1.0"
	// Schema recognized by GitHub code scanning and VS Code.
	sarifSchema = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Message   sarifMessage    `json:"message"`
	Level     string          `json:"level"` // error, warning, note
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine,omitempty"`
}

// SARIF encodes the findings as a SARIF 2.1.0 log. Parse errors and
// duplicate clusters are already represented through their findings, so
// the log carries one result per finding and nothing else.
func (r *ScanResult) SARIF(toolName, toolVersion string) ([]byte, error) {
	results := make([]sarifResult, 0, len(r.Findings))
	for _, f := range r.Findings {
		uri := toURI(f.File)
		if strings.TrimSpace(uri) == "" {
			uri = "UNKNOWN"
		}
		start := f.StartLine
		if start <= 0 {
			start = 1
		}
		end := f.EndLine
		if end < start {
			end = 0
		}

		results = append(results, sarifResult{
			RuleID: f.RuleID,
			Level:  sevToLevel(f.Severity),
			Message: sarifMessage{
				Text: strings.TrimSpace(f.Message),
			},
			Locations: []sarifLocation{
				{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{
							URI: uri,
						},
						Region: sarifRegion{
							StartLine: start,
							EndLine:   end,
						},
					},
				},
			},
		})
	}

	log := sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    toolName,
						Version: toolVersion,
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(log, "", "  ")
}

func sevToLevel(s findings.Severity) string {
	switch s {
	case findings.SeverityCritical:
		return "error"
	case findings.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	return strings.TrimPrefix(p, "./")
}
