package css

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PropertySet converts declaration values into longhand declarations. The
// property registry implements it; shorthands expand into several
// declarations here.
type PropertySet interface {
	Declare(property string, value []Token) ([]Declaration, error)
}

// ErrEmptyValue is reported for declarations without a value.
var ErrEmptyValue = errors.New("empty value")

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log   *zap.Logger
	props PropertySet
}

// NewParser creates a new CSS parser. Declaration values are converted by
// props; when props is nil values are kept as raw tokens.
func NewParser(log *zap.Logger, props PropertySet) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser"), props: props}
}

// Parse parses CSS text into a Stylesheet. It never fails: broken rules and
// declarations are dropped and recorded in Stylesheet.Warnings.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	// Log parsing start with source identifier if provided
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	rp := &ruleParser{Parser: p, sheet: sheet, tokens: Tokenize(string(data))}
	sheet.Items = rp.parseRuleList(true)
	return sheet
}

// ParseDeclarations parses a bare declaration list, as found in a style
// attribute. Problems are returned as warnings.
func (p *Parser) ParseDeclarations(text string) (Declarations, []string) {
	sheet := &Stylesheet{}
	rp := &ruleParser{Parser: p, sheet: sheet}
	return rp.parseDeclarationBlock(Tokenize(text)), sheet.Warnings
}

type ruleParser struct {
	*Parser
	sheet  *Stylesheet
	tokens []Token
	pos    int
}

func (rp *ruleParser) done() bool {
	return rp.pos >= len(rp.tokens)
}

func (rp *ruleParser) warn(msg string, fields ...zap.Field) {
	rp.sheet.Warnings = append(rp.sheet.Warnings, msg)
	rp.log.Debug(msg, fields...)
}

// parseRuleList parses rules until the end of input or, when nested, the
// closing brace of the enclosing block (which is consumed).
func (rp *ruleParser) parseRuleList(top bool) []StylesheetItem {
	items := make([]StylesheetItem, 0)
	for !rp.done() {
		t := rp.tokens[rp.pos]
		switch t.Kind {
		case TokenWhitespace, TokenCDO, TokenCDC, TokenSemicolon:
			rp.pos++
		case TokenRightBrace:
			rp.pos++
			if !top {
				return items
			}
			rp.warn("unexpected '}' in stylesheet")
		case TokenAtKeyword:
			if item, ok := rp.parseAtRule(); ok {
				items = append(items, item)
			}
		default:
			if rule, ok := rp.parseQualifiedRule(); ok {
				items = append(items, StylesheetItem{Rule: rule})
			}
		}
	}
	if !top {
		rp.warn("unterminated block at end of stylesheet")
	}
	return items
}

// consumePrelude collects tokens up to a top level '{' or ';'. The stop token
// is not consumed. Nested blocks of the enclosing level stop it as well, in
// which case stop is TokenRightBrace.
func (rp *ruleParser) consumePrelude(stopAtSemicolon bool) (prelude []Token, stop TokenKind) {
	start := rp.pos
	depth := 0
	for !rp.done() {
		t := rp.tokens[rp.pos]
		switch t.Kind {
		case TokenLeftBracket, TokenLeftParen:
			depth++
		case TokenRightBracket, TokenRightParen:
			if depth > 0 {
				depth--
			}
		case TokenLeftBrace:
			return rp.tokens[start:rp.pos], TokenLeftBrace
		case TokenRightBrace:
			return rp.tokens[start:rp.pos], TokenRightBrace
		case TokenSemicolon:
			if stopAtSemicolon && depth == 0 {
				return rp.tokens[start:rp.pos], TokenSemicolon
			}
		}
		rp.pos++
	}
	return rp.tokens[start:], TokenEOF
}

// consumeBlock expects the current token to be '{' and returns the tokens up
// to the matching '}', consuming both braces.
func (rp *ruleParser) consumeBlock() []Token {
	rp.pos++ // {
	start := rp.pos
	depth := 0
	for !rp.done() {
		switch rp.tokens[rp.pos].Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			if depth == 0 {
				block := rp.tokens[start:rp.pos]
				rp.pos++
				return block
			}
			depth--
		}
		rp.pos++
	}
	rp.warn("unterminated block at end of stylesheet")
	return rp.tokens[start:]
}

func (rp *ruleParser) parseQualifiedRule() (*StyleRule, bool) {
	prelude, stop := rp.consumePrelude(false)
	if stop != TokenLeftBrace {
		// selector without a block, nothing to apply it to
		rp.warn("rule without declaration block: "+Serialize(prelude), zap.String("selector", Serialize(prelude)))
		return nil, false
	}
	block := rp.consumeBlock()

	sel, err := ParseSelector(TrimWhitespace(prelude))
	if err != nil {
		rp.warn("dropped rule: "+err.Error(), zap.String("selector", Serialize(prelude)), zap.Error(err))
		return nil, false
	}
	return &StyleRule{Selector: sel, Declarations: rp.parseDeclarationBlock(block)}, true
}

func (rp *ruleParser) parseAtRule() (StylesheetItem, bool) {
	name := strings.ToLower(strings.TrimPrefix(rp.tokens[rp.pos].Data, "@"))
	rp.pos++
	prelude, stop := rp.consumePrelude(true)
	prelude = TrimWhitespace(prelude)

	switch stop {
	case TokenSemicolon, TokenEOF:
		if stop == TokenSemicolon {
			rp.pos++
		}
		return rp.statementAtRule(name, prelude)
	case TokenRightBrace:
		// at-rule cut short by the end of the enclosing block
		rp.warn("unterminated @"+name, zap.String("rule", "@"+name))
		return StylesheetItem{}, false
	}

	switch name {
	case "media":
		ml := ParseMediaList(prelude)
		rp.pos++ // {
		items := rp.parseRuleList(false)
		rp.log.Debug("Parsed @media block", zap.String("query", ml.String()), zap.Int("rules", len(items)))
		return StylesheetItem{Media: &MediaRule{Media: ml, Items: items}}, true
	case "page":
		block := rp.consumeBlock()
		return StylesheetItem{Page: &PageRule{
			Selector:     Serialize(prelude),
			Declarations: rp.parseDeclarationBlock(block),
		}}, true
	case "font-face":
		ff := rp.parseFontFace(rp.consumeBlock())
		return StylesheetItem{FontFace: &ff}, true
	}
	// Skip other @-rules with blocks
	rp.consumeBlock()
	rp.log.Debug("Skipping @-rule", zap.String("rule", "@"+name))
	return StylesheetItem{}, false
}

func (rp *ruleParser) statementAtRule(name string, prelude []Token) (StylesheetItem, bool) {
	sig := Significant(prelude)
	switch name {
	case "import":
		if len(sig) > 0 {
			if url, ok := URLValue(sig[0]); ok {
				rp.log.Debug("Parsed @import", zap.String("url", url))
				// media list follows the url, keep its original whitespace
				rest := prelude[indexOf(prelude, sig[0])+1:]
				return StylesheetItem{Import: &ImportRule{URL: url, Media: ParseMediaList(rest)}}, true
			}
		}
		rp.warn("malformed @import: " + Serialize(prelude))
		return StylesheetItem{}, false
	case "namespace":
		switch {
		case len(sig) == 1:
			if uri, ok := URLValue(sig[0]); ok {
				return StylesheetItem{Namespace: &NamespaceRule{URI: uri}}, true
			}
		case len(sig) == 2 && sig[0].Kind == TokenIdent:
			if uri, ok := URLValue(sig[1]); ok {
				return StylesheetItem{Namespace: &NamespaceRule{Prefix: sig[0].Data, URI: uri}}, true
			}
		}
		rp.warn("malformed @namespace: " + Serialize(prelude))
		return StylesheetItem{}, false
	}
	rp.log.Debug("Skipping @-rule", zap.String("rule", "@"+name))
	return StylesheetItem{}, false
}

func indexOf(tokens []Token, t Token) int {
	for i := range tokens {
		if tokens[i].Kind == t.Kind && tokens[i].Data == t.Data {
			return i
		}
	}
	return -1
}

// URLValue extracts the address from a string, url token or url() function.
func URLValue(t Token) (string, bool) {
	switch t.Kind {
	case TokenString:
		return t.Text(), true
	case TokenURL:
		s := t.Data
		if i := strings.IndexByte(s, '('); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(s, ")")
		return unquote(strings.TrimSpace(s)), true
	case TokenFunction:
		if args := Significant(t.Args); t.IsFunction("url") && len(args) == 1 && args[0].Kind == TokenString {
			return args[0].Text(), true
		}
	}
	return "", false
}

// splitDeclarations splits a block on top level semicolons, keeping nested
// blocks (margin boxes inside @page, for instance) in one piece.
func splitDeclarations(tokens []Token) [][]Token {
	var (
		groups [][]Token
		start  int
		depth  int
	)
	for i, t := range tokens {
		switch t.Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				// a nested block ends its statement
				groups = append(groups, tokens[start:i+1])
				start = i + 1
			}
		case TokenSemicolon:
			if depth == 0 {
				groups = append(groups, tokens[start:i])
				start = i + 1
			}
		}
	}
	return append(groups, tokens[start:])
}

// parseDeclarations parses property declarations of a block. Every
// declaration fails alone.
func (rp *ruleParser) parseDeclarationBlock(tokens []Token) Declarations {
	decls := make(Declarations, 0)
	for _, group := range splitDeclarations(tokens) {
		group = TrimWhitespace(group)
		if len(group) == 0 {
			continue
		}
		if group[0].Kind != TokenIdent {
			rp.warn("dropped declaration: " + Serialize(group))
			continue
		}
		name := strings.ToLower(group[0].Data)
		rest := TrimWhitespace(group[1:])
		if len(rest) == 0 || rest[0].Kind != TokenColon {
			rp.warn("dropped declaration, ':' expected: " + Serialize(group))
			continue
		}
		value, important := splitImportant(TrimWhitespace(rest[1:]))

		converted, err := rp.declare(name, value)
		if err != nil {
			rp.warn(fmt.Sprintf("dropped declaration '%s': %v", Serialize(group), err),
				zap.String("property", name), zap.Error(err))
			continue
		}
		for _, d := range converted {
			d.Important = important
			decls.Set(d)
		}
	}
	return decls
}

func (rp *ruleParser) declare(name string, value []Token) ([]Declaration, error) {
	if len(value) == 0 {
		return nil, ErrEmptyValue
	}
	if rp.props == nil {
		return []Declaration{{Property: name, Value: Raw(value)}}, nil
	}
	return rp.props.Declare(name, value)
}

// splitImportant strips a trailing "!important".
func splitImportant(value []Token) ([]Token, bool) {
	sig := Significant(value)
	if len(sig) < 2 || !sig[len(sig)-1].Is("important") || !sig[len(sig)-2].IsDelim('!') {
		return value, false
	}
	for i := len(value) - 1; i >= 0; i-- {
		if value[i].IsDelim('!') {
			return TrimWhitespace(value[:i]), true
		}
	}
	return value, false
}

// parseFontFace parses an @font-face block.
func (rp *ruleParser) parseFontFace(block []Token) FontFace {
	ff := FontFace{}
	for _, group := range splitDeclarations(block) {
		sig := Significant(group)
		if len(sig) < 3 || sig[0].Kind != TokenIdent || sig[1].Kind != TokenColon {
			continue
		}
		colon := indexOf(group, sig[1])
		valStr := Serialize(TrimWhitespace(group[colon+1:]))
		switch strings.ToLower(sig[0].Data) {
		case "font-family":
			ff.Family = unquote(valStr)
		case "src":
			ff.Src = valStr
		case "font-style":
			ff.Style = valStr
		case "font-weight":
			ff.Weight = valStr
		}
	}
	return ff
}
