package loaders

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spaghettifunk/anima-custom-asset/engine/resources"
)

// The helpers below work on the raw document. None of them moves bytes, so a
// line and column reported by the parser still point into the caller's input.

var simpleEscapes = map[byte]rune{
	'0':  0x00,
	'a':  0x07,
	'b':  0x08,
	't':  0x09,
	'\t': 0x09,
	'n':  0x0a,
	'v':  0x0b,
	'f':  0x0c,
	'r':  0x0d,
	'e':  0x1b,
	' ':  ' ',
	'"':  '"',
	'/':  '/',
	'\\': '\\',
	'N':  0x85,
	'_':  0xa0,
	'L':  0x2028,
	'P':  0x2029,
}

var hexEscapes = map[byte]int{
	'x': 2,
	'u': 4,
	'U': 8,
}

// blankComments returns a copy of b where `//` line comments and `/* */` block
// comments (which may nest) are overwritten with spaces. Line breaks inside
// block comments are kept. A `#` outside a string is rejected.
func blankComments(b []byte) ([]byte, error) {
	out := bytes.Clone(b)
	inString := false

	for i := 0; i < len(out); {
		switch {
		case inString:
			switch out[i] {
			case '\\':
				i += 2
				continue
			case '"':
				inString = false
			}
			i++

		case out[i] == '"':
			inString = true
			i++

		case out[i] == '#':
			return nil, formatErrorAt(b, i, "`#` comments are not supported, use `//`")

		case bytes.HasPrefix(out[i:], []byte("//")):
			for i < len(out) && out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
				i++
			}

		case bytes.HasPrefix(out[i:], []byte("/*")):
			start := i
			depth := 0
			for {
				if i >= len(out) {
					return nil, formatErrorAt(b, start, "unterminated block comment")
				}
				switch {
				case bytes.HasPrefix(out[i:], []byte("/*")):
					depth++
					out[i], out[i+1] = ' ', ' '
					i += 2
				case bytes.HasPrefix(out[i:], []byte("*/")):
					depth--
					out[i], out[i+1] = ' ', ' '
					i += 2
				default:
					if out[i] != '\n' && out[i] != '\r' {
						out[i] = ' '
					}
					i++
				}
				if depth == 0 {
					break
				}
			}

		default:
			i++
		}
	}
	return out, nil
}

// decodeQuoted decodes the double-quoted string starting at b[off]. Raw
// characters, line breaks included, are kept exactly as written.
func decodeQuoted(b []byte, off int) (string, error) {
	var sb strings.Builder
	for i := off + 1; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		switch r {
		case '"':
			return sb.String(), nil

		case '\\':
			if i+1 >= len(b) {
				return "", formatErrorAt(b, off, "unterminated string")
			}
			esc := b[i+1]
			if esc == '\n' || esc == '\r' {
				return "", formatErrorAt(b, i, "line continuations are not supported inside strings")
			}
			if value, ok := simpleEscapes[esc]; ok {
				sb.WriteRune(value)
				i += 2
				continue
			}
			width, ok := hexEscapes[esc]
			if !ok || i+2+width > len(b) {
				return "", formatErrorAt(b, i, "invalid escape sequence")
			}
			code, err := strconv.ParseUint(string(b[i+2:i+2+width]), 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return "", formatErrorAt(b, i, "invalid escape sequence")
			}
			sb.WriteRune(rune(code))
			i += 2 + width

		default:
			sb.Write(b[i : i+size])
			i += size
		}
	}
	return "", formatErrorAt(b, off, "unterminated string")
}

// isLineBreak reports the characters the parser counts as line breaks.
// A '\r' directly followed by '\n' is counted once, on the '\n'.
func isLineBreak(b []byte, i int, r rune) bool {
	switch r {
	case '\n', 0x85, 0x2028, 0x2029:
		return true
	case '\r':
		return i+1 >= len(b) || b[i+1] != '\n'
	}
	return false
}

// position converts a byte offset into a 1-based line and character column.
func position(b []byte, off int) (int, int) {
	line, column := 1, 1
	for i := 0; i < off && i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		switch {
		case isLineBreak(b, i, r):
			line++
			column = 1
		case r != '\r':
			column++
		}
		i += size
	}
	return line, column
}

// offset is the inverse of position. It returns -1 when b has no such
// location.
func offset(b []byte, line, column int) int {
	l, c := 1, 1
	for i := 0; i < len(b); {
		if l == line && c == column {
			return i
		}
		r, size := utf8.DecodeRune(b[i:])
		switch {
		case isLineBreak(b, i, r):
			l++
			c = 1
		case r != '\r':
			c++
		}
		i += size
	}
	return -1
}

func formatErrorAt(b []byte, off int, msg string) *resources.FormatError {
	line, column := position(b, off)
	return &resources.FormatError{Line: line, Column: column, Msg: msg}
}
