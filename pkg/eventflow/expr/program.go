package expr

import (
	"fmt"
	"slices"
)

// Env resolves identifiers during evaluation.
type Env interface {
	Lookup(name string) (any, bool)
}

// Vars is an Env backed by a map.
type Vars map[string]any

// Lookup implements Env.
func (v Vars) Lookup(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// EnvFunc adapts a function to Env.
type EnvFunc func(name string) (any, bool)

// Lookup implements Env.
func (f EnvFunc) Lookup(name string) (any, bool) { return f(name) }

// UnknownIdentifierError is returned by Eval when env cannot resolve an identifier.
type UnknownIdentifierError struct {
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("expr: unknown identifier %q", e.Name)
}

// Program is a compiled expression. It is immutable and safe to share.
type Program struct {
	src    string
	root   node
	idents []string
}

// Eval evaluates the program against env.
func (p *Program) Eval(env Env) (bool, error) {
	return p.root.eval(env)
}

// Identifiers returns the sorted, distinct identifiers referenced by the program.
func (p *Program) Identifiers() []string {
	return slices.Clone(p.idents)
}

// String returns the source text.
func (p *Program) String() string {
	return p.src
}

type node interface {
	eval(env Env) (bool, error)
}

type operand struct {
	ident string
	value any
}

func (o operand) resolve(env Env) (any, error) {
	if o.ident == "" {
		return o.value, nil
	}
	if env != nil {
		if v, ok := env.Lookup(o.ident); ok {
			return v, nil
		}
	}
	return nil, &UnknownIdentifierError{Name: o.ident}
}

type orNode struct{ left, right node }

func (n orNode) eval(env Env) (bool, error) {
	l, err := n.left.eval(env)
	if err != nil || l {
		return l, err
	}
	return n.right.eval(env)
}

type andNode struct{ left, right node }

func (n andNode) eval(env Env) (bool, error) {
	l, err := n.left.eval(env)
	if err != nil || !l {
		return false, err
	}
	return n.right.eval(env)
}

type notNode struct{ inner node }

func (n notNode) eval(env Env) (bool, error) {
	v, err := n.inner.eval(env)
	return !v, err
}

type compareNode struct {
	op          string
	fn          BinaryOp
	left, right operand
}

func (n compareNode) eval(env Env) (bool, error) {
	l, err := n.left.resolve(env)
	if err != nil {
		return false, err
	}
	r, err := n.right.resolve(env)
	if err != nil {
		return false, err
	}
	return n.fn(l, r), nil
}

type truthNode struct{ value operand }

func (n truthNode) eval(env Env) (bool, error) {
	v, err := n.value.resolve(env)
	if err != nil {
		return false, err
	}
	return IsTruthy(v), nil
}
