package internal

import (
	"strings"
)

// TagMatch describes one tag occurrence found by the Scanner.
type TagMatch struct {
	Kind       TagKind
	Name       string
	Attributes Attributes
	Start      int // Offset of the opening '<'
	End        int // Offset just past the closing '>'
}

// Scanner locates prefixed tags inside markup text.
//
// Both rendering passes share it: the structural pass asks for open and close
// tags, the text pass asks for self-closing tags only.
type Scanner struct {
	prefix     string
	openStart  string // "<t:"
	closeStart string // "</t:"
}

// NewScanner creates a scanner for the given tag prefix.
func NewScanner(prefix string) (*Scanner, error) {
	if prefix == StringValueEmpty {
		return nil, NewPrefixError(ErrMsgEmptyPrefix, prefix)
	}
	for i := 0; i < len(prefix); i++ {
		ch := prefix[i]
		if !isWordChar(ch) && ch != '-' && ch != '.' {
			return nil, NewPrefixError(ErrMsgInvalidPrefix, prefix)
		}
	}
	return &Scanner{
		prefix:     prefix,
		openStart:  string(CharLess) + prefix + string(CharColon),
		closeStart: StrCloseStart + prefix + string(CharColon),
	}, nil
}

// Prefix returns the tag prefix this scanner matches.
func (s *Scanner) Prefix() string {
	return s.prefix
}

// NextStructural returns the first open or close tag at or after from.
// Self-closing tags are skipped; they stay part of the surrounding text.
func (s *Scanner) NextStructural(src string, from int) (TagMatch, bool) {
	return s.next(src, from, func(k TagKind) bool { return k != TagKindSelfClose })
}

// NextSelfClosing returns the first self-closing tag at or after from.
func (s *Scanner) NextSelfClosing(src string, from int) (TagMatch, bool) {
	return s.next(src, from, func(k TagKind) bool { return k == TagKindSelfClose })
}

func (s *Scanner) next(src string, from int, accept func(TagKind) bool) (TagMatch, bool) {
	for from < len(src) {
		idx := strings.IndexByte(src[from:], CharLess)
		if idx < 0 {
			return TagMatch{}, false
		}
		at := from + idx

		var (
			match TagMatch
			ok    bool
		)
		switch {
		case strings.HasPrefix(src[at:], s.closeStart):
			match, ok = s.scanClose(src, at)
		case strings.HasPrefix(src[at:], s.openStart):
			match, ok = s.scanOpen(src, at)
		}
		if ok {
			if accept(match.Kind) {
				return match, true
			}
			// A well-formed tag of another kind is skipped whole.
			from = match.End
			continue
		}
		from = at + 1
	}
	return TagMatch{}, false
}

// scanOpen matches `<prefix:name attrs>` or `<prefix:name attrs/>` at start.
func (s *Scanner) scanOpen(src string, start int) (TagMatch, bool) {
	pos := start + len(s.openStart)
	name, pos := scanName(src, pos)
	if name == StringValueEmpty {
		return TagMatch{}, false
	}

	attrs := make(Attributes)
	for {
		next := skipSpace(src, pos)
		separated := next > pos
		pos = next
		if pos >= len(src) {
			return TagMatch{}, false
		}
		if src[pos] == CharGreater {
			return TagMatch{Kind: TagKindOpen, Name: name, Attributes: attrs, Start: start, End: pos + 1}, true
		}
		if strings.HasPrefix(src[pos:], StrSelfCloseEnd) {
			return TagMatch{Kind: TagKindSelfClose, Name: name, Attributes: attrs, Start: start, End: pos + len(StrSelfCloseEnd)}, true
		}
		// The first attribute must be separated from the tag name.
		if len(attrs) == 0 && !separated {
			return TagMatch{}, false
		}

		var (
			key, value string
			ok         bool
		)
		key, value, pos, ok = scanAttribute(src, pos)
		if !ok {
			return TagMatch{}, false
		}
		attrs[key] = value
	}
}

// scanClose matches `</prefix:name>` at start.
func (s *Scanner) scanClose(src string, start int) (TagMatch, bool) {
	pos := start + len(s.closeStart)
	name, pos := scanName(src, pos)
	if name == StringValueEmpty {
		return TagMatch{}, false
	}
	pos = skipSpace(src, pos)
	if pos >= len(src) || src[pos] != CharGreater {
		return TagMatch{}, false
	}
	return TagMatch{Kind: TagKindClose, Name: name, Start: start, End: pos + 1}, true
}

// scanAttribute matches `key = "value"` (or single-quoted) at pos.
// No escape sequences are interpreted inside values.
func scanAttribute(src string, pos int) (string, string, int, bool) {
	keyStart := pos
	for pos < len(src) && isWordChar(src[pos]) {
		pos++
	}
	if pos == keyStart {
		return "", "", pos, false
	}
	key := src[keyStart:pos]

	pos = skipSpace(src, pos)
	if pos >= len(src) || src[pos] != CharEquals {
		return "", "", pos, false
	}
	pos = skipSpace(src, pos+1)
	if pos >= len(src) {
		return "", "", pos, false
	}

	quote := src[pos]
	if quote != CharDoubleQuote && quote != CharSingleQuote {
		return "", "", pos, false
	}
	end := strings.IndexByte(src[pos+1:], quote)
	if end < 0 {
		return "", "", pos, false
	}
	value := src[pos+1 : pos+1+end]
	return key, value, pos + end + 2, true
}

// scanName consumes tag-name characters (word characters and colons). A name
// that ends in a colon or holds an empty segment after the first is rejected
// by returning an empty name.
func scanName(src string, pos int) (string, int) {
	start := pos
	for pos < len(src) && (isWordChar(src[pos]) || src[pos] == CharColon) {
		pos++
	}
	name := src[start:pos]
	if strings.HasSuffix(name, StrPathSeparator) || strings.Contains(name, StrDoubleColon) {
		return StringValueEmpty, pos
	}
	return name, pos
}

func skipSpace(src string, pos int) int {
	for pos < len(src) && isSpace(src[pos]) {
		pos++
	}
	return pos
}

func isSpace(ch byte) bool {
	switch ch {
	case CharSpace, CharTab, CharNewline, CharCarriageRet, CharFormFeed, CharVerticalTab:
		return true
	}
	return false
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}
