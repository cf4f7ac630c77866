package asm

// TokenKind identifies the shape of a lexed token. MicrAsm's grammar
// doesn't need a rich token set: most of the grammar's complexity
// (numeric literal prefixes, register names, forward label
// references) lives in how a Word token's text gets interpreted at
// each operand position, not in how it's split from its neighbors.
type TokenKind int

const (
	TokWord TokenKind = iota // identifier, mnemonic, register, prefixed number
	TokColon
	TokComma
	TokString
	TokNewline
	TokEOF
)

// Token is one lexed unit of MicrAsm source.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func isWordDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', ':', ';', '"', 0:
		return true
	default:
		return false
	}
}

// Lex tokenizes the full source up front. This is the one place the
// implementation genuinely diverges from the teacher/original's
// single-pass pointer-walking lexer: MicrAsm's operand grammar (typed
// number prefixes, mandatory commas, quoted strings with escapes)
// reads more naturally against a token slice than against raw bytes.
func Lex(src []byte) ([]Token, error) {
	var toks []Token
	line := 1
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch {
		case isSpace(c):
			i++

		case c == ';':
			for i < n && src[i] != '\n' {
				i++
			}

		case c == '\n':
			toks = append(toks, Token{Kind: TokNewline, Line: line})
			line++
			i++

		case c == ':':
			toks = append(toks, Token{Kind: TokColon, Line: line})
			i++

		case c == ',':
			toks = append(toks, Token{Kind: TokComma, Line: line})
			i++

		case c == '"':
			start := i + 1
			j := start
			for j < n && src[j] != '"' {
				if src[j] == '\\' && j+1 < n {
					j++
				}
				if src[j] == '\n' {
					return nil, errf(line, "unterminated string")
				}
				j++
			}
			if j >= n {
				return nil, errf(line, "unterminated string in '.strnz'")
			}
			toks = append(toks, Token{Kind: TokString, Text: string(src[start:j]), Line: line})
			i = j + 1

		default:
			start := i
			for i < n && !isWordDelim(src[i]) {
				i++
			}
			if i == start {
				return nil, errf(line, "unexpected character %q", string(c))
			}
			toks = append(toks, Token{Kind: TokWord, Text: string(src[start:i]), Line: line})
		}
	}

	toks = append(toks, Token{Kind: TokEOF, Line: line})
	return toks, nil
}
