package world

import (
	"fmt"
	"strings"
)

// Templates are the little brace dialect available in descriptions and
// emitted text:
//
//	{name}                    substitute a variable
//	{a.b.c}                   dotted field access
//	{if x}...{else}...{endif} conditional, else optional
//	{for x in y}...{endfor}   iteration
//
// Everything outside braces is literal. Context names come from the color
// table plus whatever the caller provides (self, caller, ...).

// FieldResolver lets context values expose named fields to dotted access.
type FieldResolver interface {
	TemplateField(name string) (any, bool)
}

type tmplNode interface {
	render(b *strings.Builder, ctx map[string]any) error
}

// Template is a parsed template, reusable across contexts.
type Template struct {
	nodes []tmplNode
}

// RenderTemplate parses and renders in one go.
func RenderTemplate(s string, ctx map[string]any) (string, error) {
	t, err := ParseTemplate(s)
	if err != nil {
		return "", err
	}
	return t.Render(ctx)
}

// Render evaluates the template against the context.
func (t *Template) Render(ctx map[string]any) (string, error) {
	var b strings.Builder
	for _, n := range t.nodes {
		if err := n.render(&b, ctx); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

type textNode string

func (n textNode) render(b *strings.Builder, _ map[string]any) error {
	b.WriteString(string(n))
	return nil
}

type varNode string

func (n varNode) render(b *strings.Builder, ctx map[string]any) error {
	v, err := lookupVar(ctx, string(n))
	if err != nil {
		return err
	}
	b.WriteString(stringify(v))
	return nil
}

type ifNode struct {
	cond      string
	then, alt []tmplNode
}

func (n *ifNode) render(b *strings.Builder, ctx map[string]any) error {
	v, err := lookupVar(ctx, n.cond)
	if err != nil {
		return err
	}
	branch := n.then
	if !truthy(v) {
		branch = n.alt
	}
	for _, c := range branch {
		if err := c.render(b, ctx); err != nil {
			return err
		}
	}
	return nil
}

type forNode struct {
	loopVar string
	expr    string
	body    []tmplNode
}

func (n *forNode) render(b *strings.Builder, ctx map[string]any) error {
	v, err := lookupVar(ctx, n.expr)
	if err != nil {
		return err
	}
	items, err := iterate(v)
	if err != nil {
		return Failf("'%s' is not iterable", n.expr)
	}
	for _, it := range items {
		ctx[n.loopVar] = it
		for _, c := range n.body {
			if err := c.render(b, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// tmplToken is either literal text or the inside of a {...} tag.
type tmplToken struct {
	tag  bool
	text string
}

func tokenizeTemplate(s string) ([]tmplToken, error) {
	var out []tmplToken
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			out = append(out, tmplToken{text: s})
			break
		}
		if open > 0 {
			out = append(out, tmplToken{text: s[:open]})
		}
		s = s[open+1:]
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return nil, Failf("unclosed '{' in template")
		}
		out = append(out, tmplToken{tag: true, text: strings.TrimSpace(s[:end])})
		s = s[end+1:]
	}
	return out, nil
}

// ParseTemplate compiles the template source.
func ParseTemplate(s string) (*Template, error) {
	toks, err := tokenizeTemplate(s)
	if err != nil {
		return nil, err
	}
	nodes, rest, err := parseNodes(toks, "")
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, Failf("unexpected '{%s}' in template", rest[0].text)
	}
	return &Template{nodes: nodes}, nil
}

// parseNodes consumes tokens until one of the stop keywords (else, endif,
// endfor) appropriate for the enclosing construct, which it leaves in rest.
func parseNodes(toks []tmplToken, within string) (nodes []tmplNode, rest []tmplToken, err error) {
	for len(toks) > 0 {
		tok := toks[0]
		if !tok.tag {
			nodes = append(nodes, textNode(tok.text))
			toks = toks[1:]
			continue
		}
		fields := strings.Fields(tok.text)
		if len(fields) == 0 {
			return nil, nil, Failf("empty tag in template")
		}
		switch strings.ToLower(fields[0]) {
		case "else", "endif":
			if within != "if" {
				return nil, nil, Failf("'{%s}' outside {if} in template", fields[0])
			}
			return nodes, toks, nil
		case "endfor":
			if within != "for" {
				return nil, nil, Failf("'{endfor}' outside {for} in template")
			}
			return nodes, toks, nil
		case "if":
			if len(fields) != 2 {
				return nil, nil, Failf("malformed '{%s}' in template", tok.text)
			}
			node := &ifNode{cond: fields[1]}
			toks = toks[1:]
			node.then, toks, err = parseNodes(toks, "if")
			if err != nil {
				return nil, nil, err
			}
			if len(toks) == 0 {
				return nil, nil, Failf("missing '{endif}' in template")
			}
			if strings.EqualFold(strings.Fields(toks[0].text)[0], "else") {
				toks = toks[1:]
				node.alt, toks, err = parseNodes(toks, "if")
				if err != nil {
					return nil, nil, err
				}
				if len(toks) == 0 || !strings.EqualFold(toks[0].text, "endif") {
					return nil, nil, Failf("missing '{endif}' in template")
				}
			}
			toks = toks[1:] // endif
			nodes = append(nodes, node)
		case "for":
			if len(fields) != 4 || !strings.EqualFold(fields[2], "in") {
				return nil, nil, Failf("malformed '{%s}' in template", tok.text)
			}
			node := &forNode{loopVar: fields[1], expr: fields[3]}
			toks = toks[1:]
			node.body, toks, err = parseNodes(toks, "for")
			if err != nil {
				return nil, nil, err
			}
			if len(toks) == 0 {
				return nil, nil, Failf("missing '{endfor}' in template")
			}
			toks = toks[1:] // endfor
			nodes = append(nodes, node)
		default:
			if len(fields) != 1 {
				return nil, nil, Failf("malformed '{%s}' in template", tok.text)
			}
			nodes = append(nodes, varNode(fields[0]))
			toks = toks[1:]
		}
	}
	if within != "" {
		return nodes, nil, nil
	}
	return nodes, nil, nil
}

func lookupVar(ctx map[string]any, dotted string) (any, error) {
	parts := strings.Split(dotted, ".")
	v, ok := ctx[parts[0]]
	if !ok {
		return nil, Failf("name '%s' is not defined", parts[0])
	}
	for _, p := range parts[1:] {
		switch x := v.(type) {
		case FieldResolver:
			nv, ok := x.TemplateField(p)
			if !ok {
				return nil, Failf("'%s' has no attribute '%s'", dotted, p)
			}
			v = nv
		case map[string]any:
			nv, ok := x[p]
			if !ok {
				return nil, Failf("'%s' has no attribute '%s'", dotted, p)
			}
			v = nv
		default:
			return nil, Failf("'%s' has no attribute '%s'", dotted, p)
		}
	}
	if f, ok := v.(func() any); ok {
		v = f()
	}
	return v, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	default:
		return true
	}
}

func iterate(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not iterable")
	}
}
