package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SupportedExtensions lists the source extensions the host can parse.
var SupportedExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// languageFor picks the grammar from the file extension.
func languageFor(path string) (*sitter.Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage(), nil
	case ".tsx":
		return tsx.GetLanguage(), nil
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// parse builds a syntax tree. tree-sitter is error tolerant, so a tree is returned
// for syntactically broken input as well; the caller checks HasError.
func parse(ctx context.Context, path string, src []byte) (*sitter.Tree, error) {
	lang, err := languageFor(path)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

type handler struct {
	parent string
	fn     Listener
}

// dispatcher holds the compiled listeners of every rule for one file.
type dispatcher struct {
	enter map[string][]handler
	exit  map[string][]handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		enter: make(map[string][]handler),
		exit:  make(map[string][]handler),
	}
}

func (d *dispatcher) add(key string, fn Listener) error {
	sel, err := parseSelector(key)
	if err != nil {
		return err
	}
	h := handler{parent: sel.parent, fn: fn}
	if sel.exit {
		d.exit[sel.node] = append(d.exit[sel.node], h)
	} else {
		d.enter[sel.node] = append(d.enter[sel.node], h)
	}
	return nil
}

func (d *dispatcher) empty() bool {
	return len(d.enter) == 0 && len(d.exit) == 0
}

// walk visits named nodes depth-first: enter handlers pre-order, exit handlers
// post-order. The root's exit handlers therefore run after every other visit.
func (d *dispatcher) walk(n *sitter.Node) {
	fire(d.enter[n.Type()], n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil {
			d.walk(child)
		}
	}
	fire(d.exit[n.Type()], n)
}

func fire(handlers []handler, n *sitter.Node) {
	for _, h := range handlers {
		if h.parent != "" {
			p := n.Parent()
			if p == nil || p.Type() != h.parent {
				continue
			}
		}
		h.fn(n)
	}
}
