package ast

import (
	"fmt"

	"github.com/pumped-fn/reaxpr/lexer"
	"github.com/pumped-fn/reaxpr/value"
)

// Error is raised for any missing-token condition during parsing.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func expecting(what string) error {
	return &Error{Message: fmt.Sprintf("Unexpected! Expecting: %s", what)}
}

var primaryKeywords = map[string]func() *Node{
	"null":    func() *Node { return &Node{Kind: Literal, Value: value.Null} },
	"true":    func() *Node { return &Node{Kind: Literal, Value: value.Bool(true)} },
	"false":   func() *Node { return &Node{Kind: Literal, Value: value.Bool(false)} },
	"this":    func() *Node { return &Node{Kind: This} },
	"$locals": func() *Node { return &Node{Kind: Locals} },
}

// Parse parses a full expression program: a semicolon-separated list of
// filter-expressions, trailing semicolons permitted, an empty program
// being a valid literal. A leading "::" marks one-time evaluation;
// OneTime reports that flag separately since it is not part of the tree.
func Parse(text string) (prog *Node, oneTime bool, err error) {
	src := text
	if len(src) >= 2 && src[0] == ':' && src[1] == ':' {
		oneTime = true
		src = src[2:]
	}

	toks, lexErr := lexer.Lex(src)
	if lexErr != nil {
		return nil, oneTime, lexErr
	}

	p := &parser{toks: toks}
	prog, err = p.parseProgram()
	return prog, oneTime, err
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() *lexer.Token {
	if p.done() {
		return nil
	}
	return &p.toks[p.pos]
}

func (p *parser) peekText() string {
	if p.done() {
		return ""
	}
	return p.toks[p.pos].Text
}

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) expectText(text string) error {
	if p.peekText() != text {
		return expecting(text)
	}
	p.pos++
	return nil
}

func (p *parser) parseProgram() (*Node, error) {
	var body []*Node
	for !p.done() {
		if p.peekText() == ";" {
			p.pos++
			continue
		}
		expr, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		body = append(body, expr)
		for p.peekText() == ";" {
			p.pos++
		}
	}
	return &Node{Kind: Program, Body: body}, nil
}

// filter → assignment (| name[:arg]*)*
func (p *parser) parseFilter() (*Node, error) {
	expr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	for p.peekText() == "|" {
		p.pos++
		if p.done() || !p.peek().Identifier {
			return nil, expecting("filter name")
		}
		name := p.advance().Text
		var args []*Node
		for p.peekText() == ":" {
			p.pos++
			arg, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		expr = &Node{Kind: Call, Callee: expr, Arguments: args, Filter: name}
	}
	return expr, nil
}

// assignment → ternary ('=' assignment)?
func (p *parser) parseAssignment() (*Node, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.peekText() == "=" {
		p.pos++
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Assignment, Left: left, Right: right}, nil
	}
	return left, nil
}

// ternary → logicalOr ('?' assignment ':' assignment)?
func (p *parser) parseTernary() (*Node, error) {
	test, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.peekText() == "?" {
		p.pos++
		cons, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if err := p.expectText(":"); err != nil {
			return nil, err
		}
		alt, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Conditional, Test: test, Consequent: cons, Alternate: alt}, nil
	}
	return test, nil
}

func (p *parser) parseLogicalOr() (*Node, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peekText() == "||" {
		p.pos++
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Logical, Operator: "||", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (*Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peekText() == "&&" {
		p.pos++
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Logical, Operator: "&&", L: left, R: right}
	}
	return left, nil
}

var equalityOps = map[string]bool{"==": true, "!=": true, "===": true, "!==": true}

func (p *parser) parseEquality() (*Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for equalityOps[p.peekText()] {
		op := p.advance().Text
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Binary, Operator: op, L: left, R: right}
	}
	return left, nil
}

var relationalOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}

func (p *parser) parseRelational() (*Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for relationalOps[p.peekText()] {
		op := p.advance().Text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Binary, Operator: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (*Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peekText() == "+" || p.peekText() == "-" {
		op := p.advance().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Binary, Operator: op, L: left, R: right}
	}
	return left, nil
}

var multiplicativeOps = map[string]bool{"*": true, "/": true, "%": true}

func (p *parser) parseMultiplicative() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for multiplicativeOps[p.peekText()] {
		op := p.advance().Text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Binary, Operator: op, L: left, R: right}
	}
	return left, nil
}

var unaryOps = map[string]bool{"+": true, "-": true, "!": true}

func (p *parser) parseUnary() (*Node, error) {
	if unaryOps[p.peekText()] {
		op := p.advance().Text
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Unary, Operator: op, Argument: arg}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	var node *Node
	var err error

	switch {
	case p.done():
		return nil, expecting("expression")
	case p.peekText() == "(":
		p.pos++
		node, err = p.parseFilter()
		if err != nil {
			return nil, err
		}
		if err := p.expectText(")"); err != nil {
			return nil, err
		}
	case p.peekText() == "[":
		node, err = p.parseArray()
	case p.peekText() == "{":
		node, err = p.parseObject()
	case p.peek().Identifier:
		if mk, ok := primaryKeywords[p.peekText()]; ok {
			node = mk()
			p.pos++
		} else {
			node = &Node{Kind: Identifier, Name: p.advance().Text}
		}
	case p.peek().HasValue:
		node = &Node{Kind: Literal, Value: p.advance().Value}
	default:
		return nil, expecting("expression")
	}
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(node)
}

func (p *parser) parsePostfix(node *Node) (*Node, error) {
	for {
		switch p.peekText() {
		case ".":
			p.pos++
			if p.done() || !p.peek().Identifier {
				return nil, expecting("identifier")
			}
			name := p.advance().Text
			node = &Node{Kind: Member, Object: node, Property: &Node{Kind: Literal, Value: value.String(name), Name: name}, Computed: false}
		case "[":
			p.pos++
			idx, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			if err := p.expectText("]"); err != nil {
				return nil, err
			}
			node = &Node{Kind: Member, Object: node, Property: idx, Computed: true}
		case "(":
			p.pos++
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			node = &Node{Kind: Call, Callee: node, Arguments: args}
		default:
			return node, nil
		}
	}
}

func (p *parser) parseArguments() ([]*Node, error) {
	var args []*Node
	if p.peekText() == ")" {
		p.pos++
		return args, nil
	}
	for {
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peekText() == "," {
			p.pos++
			continue
		}
		break
	}
	if err := p.expectText(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArray() (*Node, error) {
	p.pos++ // '['
	var elems []*Node
	for p.peekText() != "]" {
		if p.done() {
			return nil, expecting("]")
		}
		el, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		if p.peekText() == "," {
			p.pos++
			if p.peekText() == "]" {
				break // trailing comma
			}
			continue
		}
		break
	}
	if err := p.expectText("]"); err != nil {
		return nil, err
	}
	return &Node{Kind: Array, Elements: elems}, nil
}

func (p *parser) parseObject() (*Node, error) {
	p.pos++ // '{'
	var props []Property
	for p.peekText() != "}" {
		if p.done() {
			return nil, expecting("}")
		}
		var key *Node
		if p.peek().Identifier {
			name := p.advance().Text
			key = &Node{Kind: Literal, Value: value.String(name), Name: name}
		} else if p.peek().HasValue {
			key = &Node{Kind: Literal, Value: p.advance().Value}
		} else {
			return nil, expecting("object key")
		}
		if err := p.expectText(":"); err != nil {
			return nil, err
		}
		val, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Key: key, Value: val})
		if p.peekText() == "," {
			p.pos++
			if p.peekText() == "}" {
				break // trailing comma
			}
			continue
		}
		break
	}
	if err := p.expectText("}"); err != nil {
		return nil, err
	}
	return &Node{Kind: Object, Properties: props}, nil
}
