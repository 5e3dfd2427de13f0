package extract

import "strings"

// BodyOf returns the brace-delimited block that starts at the first '{' at or
// after offset, both braces included. end is one past the matching '}'.
//
// The walk keeps a single depth counter, so nesting depth never grows the
// stack. ok is false when no '{' follows offset (body is empty) or when the
// text ends before the block closes; in the latter case body runs to the end
// of text.
func BodyOf(text string, offset int) (body string, end int, ok bool) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(text) {
		return "", len(text), false
	}
	rel := strings.IndexByte(text[offset:], '{')
	if rel < 0 {
		return "", len(text), false
	}
	start := offset + rel
	depth := 1
	pos := start + 1
	for pos < len(text) && depth > 0 {
		switch text[pos] {
		case '{':
			depth++
		case '}':
			depth--
		}
		pos++
	}
	return text[start:pos], pos, depth == 0
}
