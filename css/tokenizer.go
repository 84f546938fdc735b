package css

import (
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Tokenize converts CSS source text into tokens. It never fails: characters
// the lexer does not recognize become delimiter tokens and are dropped later by
// whoever cannot make sense of them. Comments are removed. Function tokens own
// their argument tokens up to the matching closing parenthesis.
//
// Every call produces a fresh slice, nothing is shared between calls.
func Tokenize(text string) []Token {
	tokens, _ := nest(scan(text), 0, false)
	return tokens
}

// scan runs the lexer over text and returns a flat token stream where
// function names still wait for their arguments.
func scan(text string) []Token {
	l := css.NewLexer(parse.NewInputString(text))

	var out []Token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			// io.EOF or a lexer error, the lexer never yields anything after it
			return out
		}
		if tt == css.CommentToken {
			continue
		}
		out = append(out, convertToken(tt, string(data)))
	}
}

func convertToken(tt css.TokenType, data string) Token {
	switch tt {
	case css.IdentToken, css.CustomPropertyNameToken:
		return Token{Kind: TokenIdent, Data: data}
	case css.FunctionToken:
		return Token{Kind: TokenFunction, Data: strings.TrimSuffix(data, "(")}
	case css.AtKeywordToken:
		return Token{Kind: TokenAtKeyword, Data: data}
	case css.HashToken:
		return Token{Kind: TokenHash, Data: data}
	case css.StringToken:
		return Token{Kind: TokenString, Data: data}
	case css.BadStringToken:
		return Token{Kind: TokenBadString, Data: data}
	case css.URLToken:
		return Token{Kind: TokenURL, Data: data}
	case css.BadURLToken:
		return Token{Kind: TokenBadURL, Data: data}
	case css.NumberToken:
		num, _ := parseNumber(data)
		return Token{Kind: TokenNumber, Data: data, Number: num}
	case css.PercentageToken:
		num, _ := parseNumber(strings.TrimSuffix(data, "%"))
		return Token{Kind: TokenPercentage, Data: data, Number: num, Unit: "%"}
	case css.DimensionToken:
		num, unit := parseDimension(data)
		return Token{Kind: TokenDimension, Data: data, Number: num, Unit: unit}
	case css.WhitespaceToken:
		return Token{Kind: TokenWhitespace, Data: data}
	case css.ColonToken:
		return Token{Kind: TokenColon, Data: data}
	case css.SemicolonToken:
		return Token{Kind: TokenSemicolon, Data: data}
	case css.CommaToken:
		return Token{Kind: TokenComma, Data: data}
	case css.LeftBracketToken:
		return Token{Kind: TokenLeftBracket, Data: data}
	case css.RightBracketToken:
		return Token{Kind: TokenRightBracket, Data: data}
	case css.LeftParenthesisToken:
		return Token{Kind: TokenLeftParen, Data: data}
	case css.RightParenthesisToken:
		return Token{Kind: TokenRightParen, Data: data}
	case css.LeftBraceToken:
		return Token{Kind: TokenLeftBrace, Data: data}
	case css.RightBraceToken:
		return Token{Kind: TokenRightBrace, Data: data}
	case css.IncludeMatchToken:
		return Token{Kind: TokenIncludeMatch, Data: data}
	case css.DashMatchToken:
		return Token{Kind: TokenDashMatch, Data: data}
	case css.PrefixMatchToken:
		return Token{Kind: TokenPrefixMatch, Data: data}
	case css.SuffixMatchToken:
		return Token{Kind: TokenSuffixMatch, Data: data}
	case css.SubstringMatchToken:
		return Token{Kind: TokenSubstringMatch, Data: data}
	case css.ColumnToken:
		return Token{Kind: TokenColumn, Data: data}
	case css.UnicodeRangeToken:
		return Token{Kind: TokenUnicodeRange, Data: data}
	case css.CDOToken:
		return Token{Kind: TokenCDO, Data: data}
	case css.CDCToken:
		return Token{Kind: TokenCDC, Data: data}
	default:
		return Token{Kind: TokenDelim, Data: data}
	}
}

// nest folds argument tokens into their function tokens. It returns the
// folded tokens and the index of the first token it did not consume. Inside a
// function the matching right parenthesis is consumed and not returned; bare
// parenthesis pairs inside arguments are kept as is.
func nest(raw []Token, i int, inFunction bool) ([]Token, int) {
	var (
		out   []Token
		depth int
	)
	for i < len(raw) {
		t := raw[i]
		i++
		switch t.Kind {
		case TokenFunction:
			t.Args, i = nest(raw, i, true)
			if t.Args == nil {
				t.Args = []Token{}
			}
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			if depth == 0 && inFunction {
				return out, i
			}
			if depth > 0 {
				depth--
			}
		}
		out = append(out, t)
	}
	return out, i
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := numberPrefix(s)
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, s[numEnd:]
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// numberPrefix returns length of the CSS number at the start of s.
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	// exponent only when followed by digits, otherwise "e" starts the unit (e.g. "em")
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
