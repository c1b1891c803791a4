/*
Package expr compiles the boolean cut expressions used by selection plugins.

An expression is parsed once, when the plugin is constructed, and evaluated
once per event against an Env that resolves identifiers to the quantities
published by upstream plugins.

# Expression Syntax

	<expr> := <expr> 'or' <expr>
	        | <expr> 'and' <expr>
	        | 'not' <expr>
	        | '!' <expr>
	        | '(' <expr> ')'
	        | <operand> <op> <operand>
	        | <operand>

	<op>      := '==' | '!=' | '<' | '>' | '<=' | '>=' | 'contains' | custom
	<operand> := 'string' | "string" | number | true | false | null | identifier

'or' binds loosest, then 'and', then the negations. Identifiers are dotted
names such as jets.n or met.pt; by convention the part before the first dot
names the plugin that publishes the quantity.

# Operators

	==, !=     numeric comparison when both sides are numbers, string otherwise
	<, >       numeric comparison
	<=, >=     numeric comparison
	contains   string contains substring

# Examples

	prog, err := expr.Compile("jets.n >= 4 and (met.pt > 30 or leptons.n == 2)")
	if err != nil {
	    return err // malformed cut, reported before any event is read
	}
	pass, err := prog.Eval(expr.Vars{"jets.n": 5, "met.pt": 12.5, "leptons.n": 2})

Identifiers listed by Program.Identifiers let the caller declare plugin
dependencies up front.

# Custom Operators

	c := expr.New(expr.WithCustomOperator("matches", func(left, right any) bool {
	    ok, _ := regexp.MatchString(fmt.Sprint(right), fmt.Sprint(left))
	    return ok
	}))
	prog, _ := c.Compile("dataset.id matches '^TT'")

# Truthiness

A lone operand is true unless it is nil, false, an empty string or zero.
*/
package expr
