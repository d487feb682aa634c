package xlcalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

// ParseFormula parses formula text that begins with "=" into an AST.
// Any failure is returned as a *ParseError.
func ParseFormula(text string) (Node, error) {
	src := strings.TrimSpace(text)
	if !strings.HasPrefix(src, "=") {
		return nil, &ParseError{Formula: text, Message: "formula must start with '='"}
	}
	body := strings.TrimSpace(src[1:])
	if body == "" {
		return nil, &ParseError{Formula: text, Message: "empty formula"}
	}

	tokens, err := tokenize(body)
	if err != nil {
		return nil, &ParseError{Formula: text, Message: err.Error()}
	}
	if len(tokens) == 0 {
		return nil, &ParseError{Formula: text, Message: "no tokens"}
	}

	p := &parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, &ParseError{Formula: text, Message: err.Error()}
	}
	if !p.done() {
		return nil, &ParseError{Formula: text, Message: fmt.Sprintf("unexpected %s", describeToken(p.peek()))}
	}
	return node, nil
}

// tokenize runs the efp tokenizer over a formula body (no leading "=").
// Whitespace tokens are dropped; a tokenizer panic on malformed input is
// turned into an error.
func tokenize(body string) (tokens []efp.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("malformed formula: %v", r)
		}
	}()

	ps := efp.ExcelParser()
	for _, tok := range ps.Parse(body) {
		if tok.TType == efp.TokenTypeWhitespace {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// parser is a precedence-climbing parser over efp tokens.
type parser struct {
	tokens []efp.Token
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() efp.Token {
	if p.done() {
		return efp.Token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() efp.Token {
	tok := p.peek()
	p.pos++
	return tok
}

// infixLevels lists infix operators from lowest to highest precedence.
var infixLevels = [][]string{
	{"=", "<>", "<", "<=", ">", ">="},
	{"&"},
	{"+", "-"},
	{"*", "/"},
	{"^"},
}

func (p *parser) parseExpression() (Node, error) {
	return p.parseLevel(0)
}

// parseLevel parses left-associative infix operators at the given level.
// "^" is left associative too, so 2^3^2 is (2^3)^2.
func (p *parser) parseLevel(level int) (Node, error) {
	if level == len(infixLevels) {
		return p.parseUnary()
	}

	left, err := p.parseLevel(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.TType != efp.TokenTypeOperatorInfix || !containsOp(infixLevels[level], tok.TValue) {
			return left, nil
		}
		p.next()

		right, err := p.parseLevel(level + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.TValue, Left: left, Right: right}
	}
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.TType == efp.TokenTypeOperatorPrefix && (tok.TValue == "-" || tok.TValue == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tok.TValue, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of formula")
	}
	tok := p.next()

	switch tok.TType {
	case efp.TokenTypeOperand:
		return parseOperand(tok)

	case efp.TokenTypeFunction:
		if tok.TSubType != efp.TokenSubTypeStart {
			return nil, fmt.Errorf("unexpected %s", describeToken(tok))
		}
		return p.parseCall(tok.TValue)

	case efp.TokenTypeSubexpression:
		if tok.TSubType != efp.TokenSubTypeStart {
			return nil, fmt.Errorf("unbalanced parenthesis")
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.TType != efp.TokenTypeSubexpression || closing.TSubType != efp.TokenSubTypeStop {
			return nil, fmt.Errorf("expected ')' but found %s", describeToken(closing))
		}
		return &ParenExpr{Inner: inner}, nil
	}

	return nil, fmt.Errorf("unexpected %s", describeToken(tok))
}

func (p *parser) parseCall(rawName string) (Node, error) {
	name := strings.ToUpper(strings.TrimSuffix(rawName, "("))
	if _, ok := functions[name]; !ok {
		return nil, fmt.Errorf("unknown function %q", rawName)
	}

	call := &CallExpr{Name: name}
	if tok := p.peek(); tok.TType == efp.TokenTypeFunction && tok.TSubType == efp.TokenSubTypeStop {
		p.next()
		return call, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		tok := p.next()
		switch {
		case tok.TType == efp.TokenTypeArgument:
			continue
		case tok.TType == efp.TokenTypeFunction && tok.TSubType == efp.TokenSubTypeStop:
			return call, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' in %s() but found %s", name, describeToken(tok))
		}
	}
}

// parseOperand converts a literal or reference token.
func parseOperand(tok efp.Token) (Node, error) {
	switch tok.TSubType {
	case efp.TokenSubTypeNumber:
		n, err := strconv.ParseFloat(tok.TValue, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.TValue)
		}
		return &NumberLit{Value: n}, nil
	case efp.TokenSubTypeText:
		return &TextLit{Value: tok.TValue}, nil
	case efp.TokenSubTypeLogical:
		return &BoolLit{Value: strings.EqualFold(tok.TValue, "TRUE")}, nil
	case efp.TokenSubTypeRange:
		switch strings.ToUpper(tok.TValue) {
		case "TRUE":
			return &BoolLit{Value: true}, nil
		case "FALSE":
			return &BoolLit{Value: false}, nil
		}
		ref, err := operandReference(tok.TValue)
		if err != nil {
			return nil, fmt.Errorf("unknown name or reference %q", tok.TValue)
		}
		return &RefNode{Ref: ref}, nil
	}
	return nil, fmt.Errorf("unsupported operand %q", tok.TValue)
}

// operandReference parses a range operand. efp strips the quotes around a
// sheet name and unescapes '', so the text before "!" is the sheet name
// itself rather than its formula spelling.
func operandReference(text string) (Reference, error) {
	idx := strings.LastIndex(text, "!")
	if idx < 0 {
		return ParseReference(text)
	}

	sheet := text[:idx]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		unquoted, err := parseSheetPrefix(sheet)
		if err != nil {
			return Reference{}, err
		}
		sheet = unquoted
	} else if err := ValidateSheetName(sheet); err != nil {
		return Reference{}, err
	}

	ref, err := ParseReference(text[idx+1:])
	if err != nil {
		return Reference{}, err
	}
	ref.Sheet = sheet
	return ref, nil
}

func describeToken(tok efp.Token) string {
	if tok.TType == "" && tok.TValue == "" {
		return "end of formula"
	}
	if tok.TValue == "" {
		return strings.ToLower(tok.TType + " " + tok.TSubType)
	}
	return fmt.Sprintf("%q", tok.TValue)
}
