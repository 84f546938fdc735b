package css

import (
	"strconv"
	"strings"
)

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenFunction
	TokenAtKeyword
	TokenHash
	TokenString
	TokenURL
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenDelim
	TokenWhitespace
	TokenColon
	TokenSemicolon
	TokenComma
	TokenLeftBracket
	TokenRightBracket
	TokenLeftParen
	TokenRightParen
	TokenLeftBrace
	TokenRightBrace
	TokenIncludeMatch   // ~=
	TokenDashMatch      // |=
	TokenPrefixMatch    // ^=
	TokenSuffixMatch    // $=
	TokenSubstringMatch // *=
	TokenColumn         // ||
	TokenUnicodeRange
	TokenCDO
	TokenCDC
	TokenBadString
	TokenBadURL
)

var tokenKindNames = [...]string{
	TokenEOF:            "EOF",
	TokenIdent:          "Ident",
	TokenFunction:       "Function",
	TokenAtKeyword:      "AtKeyword",
	TokenHash:           "Hash",
	TokenString:         "String",
	TokenURL:            "URL",
	TokenNumber:         "Number",
	TokenPercentage:     "Percentage",
	TokenDimension:      "Dimension",
	TokenDelim:          "Delim",
	TokenWhitespace:     "Whitespace",
	TokenColon:          "Colon",
	TokenSemicolon:      "Semicolon",
	TokenComma:          "Comma",
	TokenLeftBracket:    "LeftBracket",
	TokenRightBracket:   "RightBracket",
	TokenLeftParen:      "LeftParen",
	TokenRightParen:     "RightParen",
	TokenLeftBrace:      "LeftBrace",
	TokenRightBrace:     "RightBrace",
	TokenIncludeMatch:   "IncludeMatch",
	TokenDashMatch:      "DashMatch",
	TokenPrefixMatch:    "PrefixMatch",
	TokenSuffixMatch:    "SuffixMatch",
	TokenSubstringMatch: "SubstringMatch",
	TokenColumn:         "Column",
	TokenUnicodeRange:   "UnicodeRange",
	TokenCDO:            "CDO",
	TokenCDC:            "CDC",
	TokenBadString:      "BadString",
	TokenBadURL:         "BadURL",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) && tokenKindNames[k] != "" {
		return tokenKindNames[k]
	}
	return "Token(" + strconv.Itoa(int(k)) + ")"
}

// Token is a single lexical unit of CSS source.
//
// Data always holds the source text of the token with its original casing.
// For functions Data is the bare function name (without the opening
// parenthesis) and Args holds the argument tokens in source order, including
// whitespace and comma separators.
type Token struct {
	Kind TokenKind
	Data string

	Number float64 // numeric value for Number, Percentage and Dimension
	Unit   string  // unit for Dimension (original casing), "%" for Percentage
	Args   []Token // arguments for Function
}

// Is reports whether the token is an identifier equal to keyword, ignoring
// ASCII case.
func (t Token) Is(keyword string) bool {
	return t.Kind == TokenIdent && strings.EqualFold(t.Data, keyword)
}

// IsDelim reports whether the token is the given delimiter character.
func (t Token) IsDelim(c byte) bool {
	return t.Kind == TokenDelim && len(t.Data) == 1 && t.Data[0] == c
}

// IsFunction reports whether the token is a function with the given name,
// ignoring ASCII case.
func (t Token) IsFunction(name string) bool {
	return t.Kind == TokenFunction && strings.EqualFold(t.Data, name)
}

// Lower returns the token data lowercased. Call sites that compare syntax
// keywords use it, the token itself is never modified.
func (t Token) Lower() string {
	return strings.ToLower(t.Data)
}

// String returns CSS source text for the token.
func (t Token) String() string {
	if t.Kind != TokenFunction {
		return t.Data
	}
	var sb strings.Builder
	sb.WriteString(t.Data)
	sb.WriteByte('(')
	for _, a := range t.Args {
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Text unquotes string tokens and returns Data for everything else.
func (t Token) Text() string {
	if t.Kind == TokenString {
		return unquote(t.Data)
	}
	return t.Data
}

// Significant returns tokens without whitespace.
func Significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != TokenWhitespace {
			out = append(out, t)
		}
	}
	return out
}

// TrimWhitespace removes leading and trailing whitespace tokens.
func TrimWhitespace(tokens []Token) []Token {
	for len(tokens) > 0 && tokens[0].Kind == TokenWhitespace {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].Kind == TokenWhitespace {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// SplitOn splits tokens into groups separated by top level tokens of the given
// kind. Function arguments are never split since they are nested.
func SplitOn(tokens []Token, kind TokenKind) [][]Token {
	var (
		groups [][]Token
		start  int
	)
	for i, t := range tokens {
		if t.Kind == kind {
			groups = append(groups, tokens[start:i])
			start = i + 1
		}
	}
	return append(groups, tokens[start:])
}

// Serialize returns the source text of tokens with whitespace runs collapsed
// to a single space and trimmed at both ends.
func Serialize(tokens []Token) string {
	var sb strings.Builder
	pendingSpace := false
	for _, t := range tokens {
		if t.Kind == TokenWhitespace {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// unquote removes surrounding quotes from a string and resolves simple
// backslash escapes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	} else if s[0] == '"' || s[0] == '\'' {
		// unterminated string at end of input
		s = s[1:]
	}
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == '\n' {
				continue
			}
			if r, n, ok := hexEscape(s[i:]); ok {
				b.WriteRune(r)
				i += n - 1
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// hexEscape decodes up to six hex digits followed by optional whitespace.
func hexEscape(s string) (rune, int, bool) {
	n := 0
	for n < len(s) && n < 6 && isHex(s[n]) {
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[:n], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	if n < len(s) && (s[n] == ' ' || s[n] == '\t' || s[n] == '\n') {
		n++
	}
	return rune(v), n, true
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
