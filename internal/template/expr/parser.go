package expr

// Parse parses an expression. Identifiers found in funcs become function
// calls; all others are variable references. Parse never fails: see the
// package documentation for how malformed input is handled.
func Parse(src string, funcs *Registry) Expression {
	p := &parser{tokens: Tokenize(src), funcs: funcs}
	return p.parseExpression()
}

type parser struct {
	tokens []Token
	pos    int
	funcs  *Registry
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) skipWhitespace() {
	for p.peek().Type == TokenWhitespace {
		p.pos++
	}
}

// parseExpression consumes at least one token unless at end of input.
func (p *parser) parseExpression() Expression {
	p.skipWhitespace()
	t := p.next()
	switch t.Type {
	case TokenString:
		return Const(unquote(t.Value))
	case TokenIdent:
		return p.parseIdentifier(t.Value)
	default:
		return Empty()
	}
}

func (p *parser) parseIdentifier(name string) Expression {
	if fns := p.funcs.Lookup(name); len(fns) > 0 {
		call := Call(name, fns)
		p.skipWhitespace()
		if p.peek().Type == TokenLParen {
			p.next()
			call.Args = p.parseArgs()
		}
		return call
	}

	ref := Ref(name, nil)
	p.skipWhitespace()
	if p.peek().Type == TokenEq {
		p.next()
		ref.Initial = p.parseExpression()
	}
	return ref
}

// parseArgs parses a comma-separated list after "(". A missing ")" ends
// the list at the first token that is neither "," nor ")".
func (p *parser) parseArgs() []Expression {
	var args []Expression
	p.skipWhitespace()
	if p.peek().Type == TokenRParen {
		p.next()
		return args
	}
	for {
		args = append(args, p.parseExpression())
		p.skipWhitespace()
		switch p.peek().Type {
		case TokenComma:
			p.next()
		case TokenRParen:
			p.next()
			return args
		default:
			return args
		}
	}
}
