package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel precedes the JSON record in a generated reply. Everything before it is
// shown to the user; it and the payload are not.
const Sentinel = "SAVE_COMPLAINT_DATA:"

var (
	// ErrNoRecord means the reply carries no sentinel. This is the normal
	// "still collecting fields" case.
	ErrNoRecord = errors.New("no complaint record in reply")
	// ErrMalformedRecord means the sentinel is not followed by an opening brace.
	ErrMalformedRecord = errors.New("complaint record has no opening brace")
	// ErrIncompleteRecord means no closing brace exists after the opening one.
	ErrIncompleteRecord = errors.New("complaint record has no closing brace")
)

// InvalidJSONError carries the slice that failed to parse.
type InvalidJSONError struct {
	Raw string
	Err error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("parse complaint record: %v", e.Err)
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// Result is a successfully extracted record.
type Result struct {
	Record Record
	// Visible is the reply text before the sentinel, trimmed.
	Visible string
	// Raw is the JSON slice the record was parsed from.
	Raw string
}

// Extract finds the first sentinel in text and parses the JSON object after it.
// Later sentinels are ignored.
func Extract(text string) (*Result, error) {
	idx := strings.Index(text, Sentinel)
	if idx < 0 {
		return nil, ErrNoRecord
	}
	rest := text[idx+len(Sentinel):]

	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return nil, ErrMalformedRecord
	}
	end := matchBrace(rest, open)
	if end < 0 {
		// Unterminated: take the last closing brace as the boundary.
		end = strings.LastIndexByte(rest[open:], '}')
		if end < 0 {
			return nil, ErrIncompleteRecord
		}
		end += open
	}

	raw := rest[open : end+1]
	var rec map[string]any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &InvalidJSONError{Raw: raw, Err: err}
	}

	return &Result{
		Record:  Record(rec),
		Visible: strings.TrimSpace(text[:idx]),
		Raw:     raw,
	}, nil
}

// VisibleText returns what the user may see of a reply: the text before the
// first sentinel, or the whole reply when there is none.
func VisibleText(text string) string {
	idx := strings.Index(text, Sentinel)
	if idx < 0 {
		return text
	}
	return strings.TrimSpace(text[:idx])
}

// matchBrace returns the index of the brace closing the one at s[open], or -1.
// Braces inside JSON string literals are not counted.
func matchBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
