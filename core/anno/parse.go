package anno

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError describes a syntactic violation of the text notation. Failures
// are not classified beyond a human-readable message.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

var trackNameRe = regexp.MustCompile(`(?i)^[ \t]*trackname[ \t]*:`)

// Parse converts the text notation into an Hkanno.
//
// String fields of the result borrow substrings of input; call Detach on the
// result if it must outlive the input buffer. NumOriginalFrames and Duration
// are left at zero: the header lines are comments and carry no data.
//
// Parsing is purely syntactic. Header counts are never checked against the
// actual number of tracks or annotations, and times are not validated
// against any duration. Empty input is a valid document with zero tracks.
func Parse(input string) (*Hkanno, error) {
	h := &Hkanno{}
	lineno := 0

	for input != "" {
		line, rest, _ := strings.Cut(input, "\n")
		input = rest
		lineno++
		line = strings.TrimSuffix(line, "\r")

		body := strings.TrimLeft(line, " \t")
		if body == "" || strings.HasPrefix(body, "#") {
			continue // blank or comment line
		}

		if m := trackNameRe.FindString(line); m != "" {
			name := strings.Trim(line[len(m):], " \t")
			h.Tracks = append(h.Tracks, Track{Name: optValue(name)})
			continue
		}

		ann, err := parseAnnotationLine(body, lineno)
		if err != nil {
			return nil, err
		}
		if len(h.Tracks) == 0 {
			return nil, &ParseError{Message: fmt.Sprintf(
				"line %d: annotation before any trackName line", lineno)}
		}
		tr := &h.Tracks[len(h.Tracks)-1]
		tr.Annotations = append(tr.Annotations, ann)
	}

	return h, nil
}

// parseAnnotationLine parses "<float> <rest of line>". body has leading
// spaces already removed.
func parseAnnotationLine(body string, lineno int) (Annotation, error) {
	timeTok := body
	rest := ""
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		timeTok, rest = body[:i], body[i:]
	}

	t, err := strconv.ParseFloat(timeTok, 32)
	if err != nil {
		return Annotation{}, &ParseError{Message: fmt.Sprintf(
			"line %d: invalid annotation time %q", lineno, timeTok)}
	}

	// The separator after the time is mandatory: a bare float line has no
	// text, and "no text" must be spelled with the sentinel glyph.
	if rest == "" {
		return Annotation{}, &ParseError{Message: fmt.Sprintf(
			"line %d: annotation %q has no text; use %s for an explicit null",
			lineno, timeTok, NullGlyph)}
	}

	text := strings.TrimLeft(rest, " \t")
	return Annotation{Time: float32(t), Text: optValue(text)}, nil
}

// optValue maps the sentinel glyph to nil; any other value, including "", is
// kept as-is.
func optValue(s string) *string {
	if s == NullGlyph {
		return nil
	}
	return &s
}
