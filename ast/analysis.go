package ast

// StatefulFilter reports whether a named filter is stateful (non-constant
// even when all its arguments are constant), consulted by Analyze for the
// Call/filter case. The filter registry supplies this at compile
// time; it defaults to false (pure) for unknown names.
type StatefulFilter func(name string) bool

// Analyze performs the single post-order pass that sets Constant and
// ToWatch on every node.
func Analyze(n *Node, stateful StatefulFilter) {
	if n == nil {
		return
	}
	switch n.Kind {
	case Program:
		for _, stmt := range n.Body {
			Analyze(stmt, stateful)
		}
		n.Constant = allConstant(n.Body)

	case Literal:
		n.Constant = true
		n.ToWatch = nil

	case This, Locals:
		n.Constant = false
		n.ToWatch = nil

	case Identifier:
		n.Constant = false
		n.ToWatch = []*Node{n}

	case ValueParameter:
		n.Constant = false
		n.ToWatch = nil

	case Array:
		for _, el := range n.Elements {
			Analyze(el, stateful)
		}
		n.Constant = allConstant(n.Elements)
		n.ToWatch = unionNonConstantWatch(n.Elements)

	case Object:
		var vals []*Node
		for _, p := range n.Properties {
			Analyze(p.Value, stateful)
			vals = append(vals, p.Value)
		}
		n.Constant = allConstant(vals)
		n.ToWatch = unionNonConstantWatch(vals)

	case Member:
		Analyze(n.Object, stateful)
		if n.Computed {
			Analyze(n.Property, stateful)
			n.Constant = n.Object.Constant && n.Property.Constant
		} else {
			n.Constant = n.Object.Constant
		}
		n.ToWatch = []*Node{n}

	case Call:
		for _, a := range n.Arguments {
			Analyze(a, stateful)
		}
		if n.Filter != "" {
			Analyze(n.Callee, stateful)
			if stateful != nil && stateful(n.Filter) {
				n.Constant = false
				n.ToWatch = []*Node{n}
				return
			}
			n.Constant = n.Callee.Constant && allConstant(n.Arguments)
			n.ToWatch = unionNonConstantWatch(append([]*Node{n.Callee}, n.Arguments...))
			return
		}
		Analyze(n.Callee, stateful)
		n.Constant = false
		n.ToWatch = []*Node{n}

	case Assignment:
		Analyze(n.Left, stateful)
		Analyze(n.Right, stateful)
		n.Constant = n.Left.Constant && n.Right.Constant
		n.ToWatch = []*Node{n}

	case Unary:
		Analyze(n.Argument, stateful)
		n.Constant = n.Argument.Constant
		n.ToWatch = n.Argument.ToWatch

	case Binary:
		Analyze(n.L, stateful)
		Analyze(n.R, stateful)
		n.Constant = n.L.Constant && n.R.Constant
		n.ToWatch = concatWatch(n.L.ToWatch, n.R.ToWatch)

	case Logical:
		Analyze(n.L, stateful)
		Analyze(n.R, stateful)
		n.Constant = n.L.Constant && n.R.Constant
		n.ToWatch = []*Node{n}

	case Conditional:
		Analyze(n.Test, stateful)
		Analyze(n.Consequent, stateful)
		Analyze(n.Alternate, stateful)
		n.Constant = n.Test.Constant && n.Consequent.Constant && n.Alternate.Constant
		n.ToWatch = []*Node{n}
	}
}

func allConstant(nodes []*Node) bool {
	for _, n := range nodes {
		if !n.Constant {
			return false
		}
	}
	return true
}

func unionNonConstantWatch(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		if !n.Constant {
			out = append(out, n.ToWatch...)
		}
	}
	return out
}

func concatWatch(a, b []*Node) []*Node {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]*Node, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// Classification captures the compiled-expression traits derived once
// analysis has run on the program node.
type Classification struct {
	Literal  bool
	Constant bool
	// Inputs holds the single statement's ToWatch set when that set is
	// usable for dirty-check short-circuiting: anything except the
	// statement watching itself.
	Inputs []*Node
}

// Classify derives literal/constant/inputs from an analyzed Program node.
// Inputs stay empty when the program has more than one statement, or when
// its only statement's ToWatch is the statement itself (re-evaluating the
// input would be re-evaluating the whole expression).
func Classify(prog *Node) Classification {
	var c Classification
	c.Constant = prog.Constant

	if len(prog.Body) == 0 {
		c.Literal = true
	} else if len(prog.Body) == 1 {
		stmt := prog.Body[0]
		if stmt.Kind == Literal || stmt.Kind == Array || stmt.Kind == Object {
			c.Literal = true
		}
		if len(stmt.ToWatch) != 1 || stmt.ToWatch[0] != stmt {
			c.Inputs = stmt.ToWatch
		}
	}
	return c
}
