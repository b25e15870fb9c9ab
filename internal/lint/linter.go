package lint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"smartcook/internal/logging"
	"sort"
	"strings"
)

// Version is mixed into cache keys; bump it whenever rule behavior changes.
const Version = "1"

// Linter runs a fixed set of rules with resolved severities.
type Linter struct {
	rules      []Rule
	severities map[string]Severity
}

// NewLinter resolves severities: an override of "error", "warn" or "off" wins,
// otherwise recommended rules are errors and the rest warnings.
func NewLinter(rules []Rule, overrides map[string]string) (*Linter, error) {
	known := make(map[string]bool, len(rules))
	sev := make(map[string]Severity, len(rules))
	var enabled []Rule

	for _, r := range rules {
		m := r.Meta()
		if known[m.ID] {
			return nil, fmt.Errorf("duplicate rule id %s", m.ID)
		}
		known[m.ID] = true

		s := SeverityWarning
		if m.Recommended {
			s = SeverityError
		}
		switch overrides[m.ID] {
		case "error":
			s = SeverityError
		case "warn", "warning":
			s = SeverityWarning
		case "off":
			continue
		case "":
		default:
			return nil, fmt.Errorf("invalid severity %q for rule %s", overrides[m.ID], m.ID)
		}
		sev[m.ID] = s
		enabled = append(enabled, r)
	}

	for id := range overrides {
		if !known[id] {
			return nil, fmt.Errorf("unknown rule %s", id)
		}
	}

	return &Linter{rules: enabled, severities: sev}, nil
}

// Rules returns the enabled rules.
func (l *Linter) Rules() []Rule { return l.rules }

// Severity returns the resolved severity of an enabled rule.
func (l *Linter) Severity(ruleID string) Severity { return l.severities[ruleID] }

// Fingerprint identifies the rule set for cache invalidation.
func (l *Linter) Fingerprint() string {
	parts := make([]string, 0, len(l.rules))
	for _, r := range l.rules {
		id := r.Meta().ID
		parts = append(parts, id+"="+string(l.severities[id]))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(Version + "|" + strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:8])
}

// LintFile reads and lints a file from disk.
func (l *Linter) LintFile(ctx context.Context, path string) ([]Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return l.LintSource(ctx, path, src)
}

// LintSource lints in-memory content. filename drives both grammar selection and the
// rules' own file filters; the source is only parsed if at least one rule installs
// listeners for it.
func (l *Linter) LintSource(ctx context.Context, filename string, src []byte) ([]Diagnostic, error) {
	d := newDispatcher()
	contexts := make([]*Context, 0, len(l.rules))

	for _, r := range l.rules {
		rc := newContext(r.Meta().ID, filename, src)
		listeners := r.Create(rc)
		if len(listeners) == 0 {
			continue
		}
		for key, fn := range listeners {
			if err := d.add(key, fn); err != nil {
				return nil, fmt.Errorf("rule %s: %w", rc.ruleID, err)
			}
		}
		contexts = append(contexts, rc)
	}

	if d.empty() {
		return nil, nil
	}

	tree, err := parse(ctx, filename, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		logging.LintDebug("syntax errors in %s, linting the recovered tree", filepath.Base(filename))
	}
	d.walk(root)

	var diags []Diagnostic
	for _, rc := range contexts {
		for _, rep := range rc.reports {
			line, col := 1, 1
			// Reports on the root are file-level.
			if rep.Node != nil && rep.Node.Parent() != nil {
				p := rep.Node.StartPoint()
				line, col = int(p.Row)+1, int(p.Column)+1
			}
			diags = append(diags, Diagnostic{
				RuleID:   rc.ruleID,
				Severity: l.severities[rc.ruleID],
				Message:  rep.Message,
				File:     filename,
				Line:     line,
				Column:   col,
			})
		}
	}
	sortDiagnostics(diags)
	return diags, nil
}
