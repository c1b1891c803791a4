package expr

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// BinaryOp is a function that compares two values and returns a boolean result.
type BinaryOp func(left, right any) bool

// Compiler turns expression strings into Programs, with optional custom operators.
type Compiler struct {
	customOps map[string]BinaryOp
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCustomOperator registers a custom binary operator.
// The operator name should not conflict with built-in operators and is only
// recognised when surrounded by spaces.
func WithCustomOperator(name string, fn BinaryOp) Option {
	return func(c *Compiler) {
		if c.customOps == nil {
			c.customOps = make(map[string]BinaryOp)
		}
		c.customOps[name] = fn
	}
}

// New creates a Compiler with the given options.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile parses src with the default compiler.
func Compile(src string) (*Program, error) {
	return New().Compile(src)
}

// Eval compiles and evaluates src in one step. Prefer Compile for anything
// evaluated more than once.
func Eval(src string, vars map[string]any) (bool, error) {
	p, err := Compile(src)
	if err != nil {
		return false, err
	}
	return p.Eval(Vars(vars))
}

// Compile parses src into a Program.
func (c *Compiler) Compile(src string) (*Program, error) {
	p := &parser{compiler: c}
	root, err := p.parse(src)
	if err != nil {
		return nil, fmt.Errorf("expr %q: %w", src, err)
	}
	idents := slices.Clone(p.idents)
	slices.Sort(idents)
	return &Program{src: src, root: root, idents: slices.Compact(idents)}, nil
}

type parser struct {
	compiler *Compiler
	idents   []string
}

var builtinOps = []struct {
	token   string
	compare BinaryOp
}{
	// Longer tokens first to avoid partial matches.
	{"==", equals},
	{"!=", func(l, r any) bool { return !equals(l, r) }},
	{">=", func(l, r any) bool { return ToFloat64(l) >= ToFloat64(r) }},
	{"<=", func(l, r any) bool { return ToFloat64(l) <= ToFloat64(r) }},
	{">", func(l, r any) bool { return ToFloat64(l) > ToFloat64(r) }},
	{"<", func(l, r any) bool { return ToFloat64(l) < ToFloat64(r) }},
	{" contains ", func(l, r any) bool {
		return strings.Contains(fmt.Sprintf("%v", l), fmt.Sprintf("%v", r))
	}},
}

func (p *parser) parse(s string) (node, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if err := checkBalanced(s); err != nil {
		return nil, err
	}

	if inner, ok := stripParens(s); ok {
		return p.parse(inner)
	}

	if l, r, ok := splitTop(s, " or "); ok {
		return p.binary(l, r, func(a, b node) node { return orNode{a, b} })
	}
	if l, r, ok := splitTop(s, " and "); ok {
		return p.binary(l, r, func(a, b node) node { return andNode{a, b} })
	}

	if rest, ok := strings.CutPrefix(s, "not "); ok {
		inner, err := p.parse(rest)
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	if rest, ok := strings.CutPrefix(s, "!"); ok && !strings.HasPrefix(rest, "=") {
		inner, err := p.parse(rest)
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}

	for _, op := range builtinOps {
		if l, r, ok := splitTop(s, op.token); ok {
			return p.compare(l, r, op.token, op.compare)
		}
	}
	for name, fn := range p.compiler.customOps {
		if l, r, ok := splitTop(s, " "+name+" "); ok {
			return p.compare(l, r, name, fn)
		}
	}

	o, err := p.operand(s)
	if err != nil {
		return nil, err
	}
	return truthNode{o}, nil
}

func (p *parser) binary(l, r string, mk func(a, b node) node) (node, error) {
	left, err := p.parse(l)
	if err != nil {
		return nil, err
	}
	right, err := p.parse(r)
	if err != nil {
		return nil, err
	}
	return mk(left, right), nil
}

func (p *parser) compare(l, r, token string, fn BinaryOp) (node, error) {
	left, err := p.operand(l)
	if err != nil {
		return nil, err
	}
	right, err := p.operand(r)
	if err != nil {
		return nil, err
	}
	return compareNode{op: strings.TrimSpace(token), fn: fn, left: left, right: right}, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

func (p *parser) operand(s string) (operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return operand{}, fmt.Errorf("missing operand")
	}

	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return operand{value: s[1 : len(s)-1]}, nil
	}

	switch strings.ToLower(s) {
	case "true":
		return operand{value: true}, nil
	case "false":
		return operand{value: false}, nil
	case "null", "nil":
		return operand{value: nil}, nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return operand{value: i}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return operand{value: f}, nil
	}

	if !identPattern.MatchString(s) {
		return operand{}, fmt.Errorf("invalid operand %q", s)
	}
	p.idents = append(p.idents, s)
	return operand{ident: s}, nil
}

// splitTop splits s around the first occurrence of sep that is outside
// quotes and parentheses.
func splitTop(s, sep string) (string, string, bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			continue
		case ch == '\'' || ch == '"':
			quote = ch
			continue
		case ch == '(':
			depth++
			continue
		case ch == ')':
			depth--
			continue
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			return s[:i], s[i+len(sep):], true
		}
	}
	return "", "", false
}

// stripParens removes one pair of parentheses enclosing the whole of s.
func stripParens(s string) (string, bool) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				// "(a) and (b)": the first group closes early.
				return "", false
			}
		}
	}
	return s[1 : len(s)-1], true
}

func checkBalanced(s string) error {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced ')' at offset %d", i)
			}
		}
	}
	if quote != 0 {
		return fmt.Errorf("unterminated string")
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced '('")
	}
	return nil
}
