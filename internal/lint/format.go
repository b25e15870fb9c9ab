package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WriteSummary renders s in the given format.
func WriteSummary(w io.Writer, s *Summary, format string) error {
	switch format {
	case "", FormatText:
		return writeText(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if s.Files == nil {
			s.Files = []FileResult{}
		}
		return enc.Encode(s)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, s *Summary) error {
	if !s.HasProblems() {
		_, err := fmt.Fprintf(w, "OK: no issues found (%d %s)\n", s.FilesScanned, plural(s.FilesScanned, "file"))
		return err
	}

	for _, fr := range s.Files {
		fmt.Fprintln(w, fr.File)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, d := range fr.Diagnostics {
			fmt.Fprintf(tw, "  %d:%d\t%s\t%s\t%s\n", d.Line, d.Column, d.Severity, d.Message, d.RuleID)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	total := s.ErrorCount + s.WarningCount
	_, err := fmt.Fprintf(w, "%d %s (%d %s, %d %s)\n",
		total, plural(total, "problem"),
		s.ErrorCount, plural(s.ErrorCount, "error"),
		s.WarningCount, plural(s.WarningCount, "warning"))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// FormatDiagnostic renders one diagnostic on a single line.
func FormatDiagnostic(d Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
	if d.RuleID != "" {
		fmt.Fprintf(&b, " [%s]", d.RuleID)
	}
	return b.String()
}
