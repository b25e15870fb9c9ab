package lint

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceRule records the order in which its listeners fire and reports one
// diagnostic per exported function plus a summary on program exit.
type traceRule struct {
	id          string
	recommended bool
	only        string
	trace       *[]string
}

func (r traceRule) Meta() Meta {
	return Meta{ID: r.id, Type: RuleTypeProblem, Recommended: r.recommended}
}

func (r traceRule) Create(ctx *Context) Listeners {
	if r.only != "" && !strings.HasSuffix(ctx.Filename(), r.only) {
		return nil
	}
	calls := 0
	return Listeners{
		"call_expression": func(n *sitter.Node) {
			calls++
			*r.trace = append(*r.trace, "call:"+ctx.Text(n.ChildByFieldName("function")))
		},
		"export_statement > function_declaration": func(n *sitter.Node) {
			name := ctx.Text(n.ChildByFieldName("name"))
			*r.trace = append(*r.trace, "export:"+name)
			ctx.Report(n, "exported "+name)
		},
		"function_declaration:exit": func(n *sitter.Node) {
			*r.trace = append(*r.trace, "leave:"+ctx.Text(n.ChildByFieldName("name")))
		},
		"program:exit": func(n *sitter.Node) {
			*r.trace = append(*r.trace, "program:exit")
			if calls > 0 {
				ctx.Report(n, "saw calls")
			}
		},
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    selector
		wantErr bool
	}{
		{in: "call_expression", want: selector{node: "call_expression"}},
		{in: "program:exit", want: selector{node: "program", exit: true}},
		{in: "export_statement > function_declaration", want: selector{parent: "export_statement", node: "function_declaration"}},
		{in: "a>b:exit", want: selector{parent: "a", node: "b", exit: true}},
		{in: "", wantErr: true},
		{in: "a b", wantErr: true},
		{in: "a > b > c", wantErr: true},
		{in: "a:exit > b", wantErr: true},
		{in: ":exit", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSelector(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLintSource_DispatchOrder(t *testing.T) {
	var trace []string
	l, err := NewLinter([]Rule{traceRule{id: "trace", recommended: true, trace: &trace}}, nil)
	require.NoError(t, err)

	src := `function helper() { a.b(); }
export function POST() { c(); }
`
	diags, err := l.LintSource(context.Background(), "/x/route.ts", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"call:a.b",
		"leave:helper",
		"export:POST",
		"call:c",
		"leave:POST",
		"program:exit",
	}, trace)

	require.Len(t, diags, 2)
	// file-level report sorts first
	assert.Equal(t, "saw calls", diags[0].Message)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 1, diags[0].Column)

	assert.Equal(t, "exported POST", diags[1].Message)
	assert.Equal(t, 2, diags[1].Line)
	assert.Equal(t, 8, diags[1].Column)
	assert.Equal(t, SeverityError, diags[1].Severity)
	assert.Equal(t, "/x/route.ts", diags[1].File)
}

func TestLintSource_Grammars(t *testing.T) {
	cases := map[string]string{
		"a.ts":  "export function f(x: number): void { g(x as any); }",
		"a.tsx": "export function f() { return g(<div className=\"x\" />); }",
		"a.js":  "export function f() { g(); }",
		"a.jsx": "export function f() { return g(<div />); }",
		"a.mjs": "export function f() { g(); }",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			var trace []string
			l, err := NewLinter([]Rule{traceRule{id: "trace", trace: &trace}}, nil)
			require.NoError(t, err)
			diags, err := l.LintSource(context.Background(), name, []byte(src))
			require.NoError(t, err)
			assert.Contains(t, trace, "call:g")
			require.Len(t, diags, 2)
			assert.Equal(t, SeverityWarning, diags[0].Severity)
		})
	}
}

func TestLintSource_UnsupportedExtension(t *testing.T) {
	var trace []string
	l, err := NewLinter([]Rule{traceRule{id: "trace", trace: &trace}}, nil)
	require.NoError(t, err)

	_, err = l.LintSource(context.Background(), "main.go", []byte("package main"))
	assert.Error(t, err)
}

func TestLintSource_NoListenersSkipsParse(t *testing.T) {
	var trace []string
	l, err := NewLinter([]Rule{traceRule{id: "trace", only: "route.ts", trace: &trace}}, nil)
	require.NoError(t, err)

	diags, err := l.LintSource(context.Background(), "notes.txt", []byte("not code"))
	require.NoError(t, err)
	assert.Nil(t, diags)
	assert.Empty(t, trace)
}

func TestLintSource_BadSelector(t *testing.T) {
	bad := ruleFunc{id: "bad", create: func(*Context) Listeners {
		return Listeners{"a b c": func(*sitter.Node) {}}
	}}
	l, err := NewLinter([]Rule{bad}, nil)
	require.NoError(t, err)
	_, err = l.LintSource(context.Background(), "x.ts", []byte(""))
	assert.ErrorContains(t, err, "rule bad")
}

type ruleFunc struct {
	id     string
	create func(*Context) Listeners
}

func (r ruleFunc) Meta() Meta { return Meta{ID: r.id} }
func (r ruleFunc) Create(ctx *Context) Listeners { return r.create(ctx) }

func TestNewLinter_Severities(t *testing.T) {
	var trace []string
	rules := []Rule{
		traceRule{id: "a", recommended: true, trace: &trace},
		traceRule{id: "b", trace: &trace},
		traceRule{id: "c", recommended: true, trace: &trace},
	}

	l, err := NewLinter(rules, map[string]string{"a": "warn", "b": "error", "c": "off"})
	require.NoError(t, err)
	assert.Len(t, l.Rules(), 2)
	assert.Equal(t, SeverityWarning, l.Severity("a"))
	assert.Equal(t, SeverityError, l.Severity("b"))

	_, err = NewLinter(rules, map[string]string{"zzz": "error"})
	assert.ErrorContains(t, err, "unknown rule")

	_, err = NewLinter(rules, map[string]string{"a": "loud"})
	assert.ErrorContains(t, err, "invalid severity")

	_, err = NewLinter(append(rules, traceRule{id: "a", trace: &trace}), nil)
	assert.ErrorContains(t, err, "duplicate")
}

func TestFingerprint(t *testing.T) {
	var trace []string
	rules := []Rule{traceRule{id: "a", recommended: true, trace: &trace}}

	l1, err := NewLinter(rules, nil)
	require.NoError(t, err)
	l2, err := NewLinter(rules, nil)
	require.NoError(t, err)
	l3, err := NewLinter(rules, map[string]string{"a": "warn"})
	require.NoError(t, err)

	assert.Equal(t, l1.Fingerprint(), l2.Fingerprint())
	assert.NotEqual(t, l1.Fingerprint(), l3.Fingerprint())
}
