// Package lint is a small static-analysis host for JavaScript and TypeScript sources.
//
// A Rule declares listeners keyed by tree-sitter node selectors. The host parses a
// file once, walks the syntax tree depth-first and dispatches every visit to the
// listeners of all enabled rules. Rules accumulate state in the closure returned by
// Create and report from their exit listeners.
//
// Selector grammar:
//
//	call_expression                         enter every node of that type
//	program:exit                            leave every node of that type
//	export_statement > function_declaration direct child of a given parent type
package lint

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// RuleType classifies what a rule catches.
type RuleType string

const (
	RuleTypeProblem    RuleType = "problem"
	RuleTypeSuggestion RuleType = "suggestion"
)

// Meta describes a rule.
type Meta struct {
	ID          string
	Description string
	Type        RuleType
	Category    string
	Recommended bool
}

// Listener handles one node visit.
type Listener func(node *sitter.Node)

// Listeners maps selectors to handlers. A nil or empty map means the rule does not
// apply to the file.
type Listeners map[string]Listener

// Rule is a single check. Create is called once per file; all per-file state must
// live in the returned listeners, never on the Rule itself.
type Rule interface {
	Meta() Meta
	Create(ctx *Context) Listeners
}

// Report is a problem found by a rule before severity and position are resolved.
type Report struct {
	Node    *sitter.Node
	Message string
}

// Context is what a rule sees of the file being analysed.
type Context struct {
	ruleID   string
	filename string
	source   []byte
	reports  []Report
}

func newContext(ruleID, filename string, source []byte) *Context {
	return &Context{ruleID: ruleID, filename: filename, source: source}
}

// RuleID returns the ID of the rule this context belongs to.
func (c *Context) RuleID() string { return c.ruleID }

// Filename returns the path of the file being linted.
func (c *Context) Filename() string { return c.filename }

// Source returns the raw file contents.
func (c *Context) Source() []byte { return c.source }

// Text returns the source text of a node.
func (c *Context) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.source)
}

// Report records a problem attached to node.
func (c *Context) Report(node *sitter.Node, message string) {
	c.reports = append(c.reports, Report{Node: node, Message: message})
}

type selector struct {
	parent string
	node   string
	exit   bool
}

func parseSelector(s string) (selector, error) {
	var sel selector
	orig := s
	s = strings.TrimSpace(s)
	if parent, child, ok := strings.Cut(s, ">"); ok {
		sel.parent = strings.TrimSpace(parent)
		s = strings.TrimSpace(child)
		if sel.parent == "" || strings.ContainsAny(sel.parent, " :") {
			return sel, fmt.Errorf("unsupported selector %q", orig)
		}
	}
	if node, ok := strings.CutSuffix(s, ":exit"); ok {
		sel.exit = true
		s = node
	}
	if s == "" || strings.ContainsAny(s, " >:") {
		return sel, fmt.Errorf("unsupported selector %q", orig)
	}
	sel.node = s
	return sel, nil
}
