package engine

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites plan script source before zygomys sees it:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot collide with user variables.
//  2. kebab-case identifiers become snake_case (wall-height -> wall_height),
//     since zygomys reads a bare hyphen as subtraction.
//  3. ; and ;; line comments become // comments.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	s := scanner{src: []byte(source)}
	s.out = make([]byte, 0, len(source)+len(source)/4)
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"':
			s.copyQuoted('"', true)
		case c == '`':
			s.copyQuoted('`', false)
		case c == ';':
			s.copyComment()
		case c == ':' && s.peek(1) == '=':
			s.emit(2)
		case c == ':' && isLetter(s.peek(1)):
			s.keyword()
		case c == '-' && s.pos > 0 && isIdentChar(s.src[s.pos-1]) && isLetter(s.peek(1)):
			s.out = append(s.out, '_')
			s.pos++
		default:
			s.emit(1)
		}
	}
	return string(s.out)
}

type scanner struct {
	src []byte
	out []byte
	pos int
}

// peek returns the byte n positions ahead, or 0 past the end.
func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}
	return 0
}

// emit copies n bytes (clamped) to the output.
func (s *scanner) emit(n int) {
	end := min(s.pos+n, len(s.src))
	s.out = append(s.out, s.src[s.pos:end]...)
	s.pos = end
}

// copyQuoted copies a quoted literal including both delimiters. Unclosed
// literals run to the end of input.
func (s *scanner) copyQuoted(q byte, escapes bool) {
	s.emit(1)
	for s.pos < len(s.src) && s.src[s.pos] != q {
		if escapes && s.src[s.pos] == '\\' {
			s.emit(2)
			continue
		}
		s.emit(1)
	}
	s.emit(1)
}

func (s *scanner) copyComment() {
	s.out = append(s.out, '/', '/')
	for s.pos < len(s.src) && s.src[s.pos] == ';' {
		s.pos++
	}
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.emit(1)
	}
}

func (s *scanner) keyword() {
	j := s.pos + 1
	for j < len(s.src) && isKWChar(s.src[j]) {
		j++
	}
	s.out = append(s.out, '"')
	s.out = append(s.out, kwPrefix...)
	s.out = append(s.out, s.src[s.pos+1:j]...)
	s.out = append(s.out, '"')
	s.pos = j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
