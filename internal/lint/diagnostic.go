package lint

import (
	"sort"
)

// Severity of a reported diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a resolved rule report.
type Diagnostic struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
}

// FileResult holds the diagnostics for one file.
type FileResult struct {
	File        string       `json:"file"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Cached      bool         `json:"cached,omitempty"`
}

// Summary aggregates a lint run.
type Summary struct {
	Files        []FileResult `json:"files"`
	FilesScanned int          `json:"filesScanned"`
	ErrorCount   int          `json:"errorCount"`
	WarningCount int          `json:"warningCount"`
}

// Add appends a file result and updates the counters.
func (s *Summary) Add(fr FileResult) {
	s.FilesScanned++
	for _, d := range fr.Diagnostics {
		switch d.Severity {
		case SeverityError:
			s.ErrorCount++
		case SeverityWarning:
			s.WarningCount++
		}
	}
	if len(fr.Diagnostics) > 0 {
		s.Files = append(s.Files, fr)
	}
}

// HasProblems reports whether any diagnostic was produced.
func (s *Summary) HasProblems() bool {
	return s.ErrorCount > 0 || s.WarningCount > 0
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		if diags[i].Column != diags[j].Column {
			return diags[i].Column < diags[j].Column
		}
		return diags[i].RuleID < diags[j].RuleID
	})
}
