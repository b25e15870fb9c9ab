package rules

import (
	"fmt"
	"smartcook/internal/lint"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// RequireBodySchemaID is the registry ID of RequireBodySchema.
const RequireBodySchemaID = "api-schema/require-body-schema"

// Method is an HTTP method whose handler receives a request body.
type Method int

const (
	MethodPost Method = iota
	MethodPut
	MethodPatch
	MethodDelete
	methodCount
)

var methodNames = [methodCount]string{"POST", "PUT", "PATCH", "DELETE"}

// String returns the upper-case method name.
func (m Method) String() string { return methodNames[m] }

// SchemaName is the binding a route must declare for m, e.g. PostSchema for POST.
func (m Method) SchemaName() string { return schemaNames[m] }

var schemaNames = func() [methodCount]string {
	var out [methodCount]string
	for i, name := range methodNames {
		out[i] = name[:1] + strings.ToLower(name[1:]) + "Schema"
	}
	return out
}()

// ParseMethod maps an exported function name to a body method.
func ParseMethod(name string) (Method, bool) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), true
		}
	}
	return 0, false
}

func methodForSchema(name string) (Method, bool) {
	for i, n := range schemaNames {
		if n == name {
			return Method(i), true
		}
	}
	return 0, false
}

var validationMethods = map[string]bool{
	"parse":     true,
	"safeParse": true,
}

// Diagnostic messages.
const (
	missingSchemaFormat = "API route with %s method must define a %s"
	MissingValidation   = "Schema validation must be performed using .parse() or .safeParse()"
)

// MissingSchemaMessage is the report for a handler without its schema.
func MissingSchemaMessage(m Method) string {
	return fmt.Sprintf(missingSchemaFormat, m, m.SchemaName())
}

// IsRouteFile reports whether path is an API route handler module: it must sit
// below an api directory and be named route.ts (or route.js).
func IsRouteFile(path string) bool {
	p := strings.ReplaceAll(path, "\\", "/")
	if !strings.Contains(p, "/api/") {
		return false
	}
	return strings.HasSuffix(p, "route.ts") || strings.HasSuffix(p, "route.js")
}

// MethodRequirement tracks one body method within a file.
type MethodRequirement struct {
	Method   Method
	Required bool
	Found    bool
}

// ScanState accumulates what one pass over a route file saw.
type ScanState struct {
	Methods            [methodCount]MethodRequirement
	HasValidationUsage bool
}

// NewScanState returns a state with every method neither required nor found.
func NewScanState() *ScanState {
	s := &ScanState{}
	for i := range s.Methods {
		s.Methods[i].Method = Method(i)
	}
	return s
}

// Declare records a variable binding.
func (s *ScanState) Declare(name string) {
	if m, ok := methodForSchema(name); ok {
		s.Methods[m].Found = true
	}
}

// Export records an exported function declaration.
func (s *ScanState) Export(name string) {
	if m, ok := ParseMethod(name); ok {
		s.Methods[m].Required = true
	}
}

// Call records a member call by property name.
func (s *ScanState) Call(property string) {
	if validationMethods[property] {
		s.HasValidationUsage = true
	}
}

// Evaluate returns the messages to report, missing schemas first in
// POST, PUT, PATCH, DELETE order.
func (s *ScanState) Evaluate() []string {
	var out []string
	anyRequired := false
	for _, req := range s.Methods {
		if !req.Required {
			continue
		}
		anyRequired = true
		if !req.Found {
			out = append(out, MissingSchemaMessage(req.Method))
		}
	}
	if anyRequired && !s.HasValidationUsage {
		out = append(out, MissingValidation)
	}
	return out
}

// RequireBodySchema requires every exported POST, PUT, PATCH and DELETE handler in an
// API route file to have a matching <Method>Schema binding, and the file to call
// .parse() or .safeParse() at least once.
//
// Only `export function NAME` (and async or generator variants) count as handlers;
// default exports, export lists and exported arrow functions are not recognised.
type RequireBodySchema struct{}

// Meta implements lint.Rule.
func (RequireBodySchema) Meta() lint.Meta {
	return lint.Meta{
		ID:          RequireBodySchemaID,
		Description: "Require request body schemas and validation in API route handlers",
		Type:        lint.RuleTypeProblem,
		Category:    "Best Practices",
		Recommended: true,
	}
}

// Create implements lint.Rule.
func (RequireBodySchema) Create(ctx *lint.Context) lint.Listeners {
	if !IsRouteFile(ctx.Filename()) {
		return nil
	}

	state := NewScanState()

	exported := func(n *sitter.Node) {
		if isDefaultExport(n.Parent()) {
			return
		}
		if name := n.ChildByFieldName("name"); name != nil {
			state.Export(ctx.Text(name))
		}
	}

	return lint.Listeners{
		"variable_declarator": func(n *sitter.Node) {
			name := n.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				return
			}
			state.Declare(ctx.Text(name))
		},

		// for (const x of xs) and for (var x in o) bind without a variable_declarator.
		"for_in_statement": func(n *sitter.Node) {
			if n.ChildByFieldName("kind") == nil {
				return
			}
			if left := n.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				state.Declare(ctx.Text(left))
			}
		},

		"export_statement > function_declaration":           exported,
		"export_statement > generator_function_declaration": exported,

		"call_expression": func(n *sitter.Node) {
			if args := n.ChildByFieldName("arguments"); args == nil || args.Type() == "template_string" {
				return
			}
			callee := n.ChildByFieldName("function")
			if callee == nil {
				return
			}
			switch callee.Type() {
			case "member_expression":
				prop := callee.ChildByFieldName("property")
				if prop == nil {
					return
				}
				switch prop.Type() {
				case "property_identifier":
					state.Call(ctx.Text(prop))
				case "private_property_identifier":
					state.Call(strings.TrimPrefix(ctx.Text(prop), "#"))
				}
			case "subscript_expression":
				// obj[parse]() names the property by identifier; obj["parse"]() does not.
				if idx := callee.ChildByFieldName("index"); idx != nil && idx.Type() == "identifier" {
					state.Call(ctx.Text(idx))
				}
			}
		},

		"program:exit": func(n *sitter.Node) {
			for _, msg := range state.Evaluate() {
				ctx.Report(n, msg)
			}
		},
	}
}

func isDefaultExport(stmt *sitter.Node) bool {
	if stmt == nil {
		return false
	}
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if stmt.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}
