// Package anno holds the in-memory representation of one animation's
// annotation data and the human-editable text notation used to view and
// modify it.
//
// Text notation:
//
//	# numOriginalFrames: <int>
//	# duration: <float>
//	# numAnnotationTracks: <count>
//
//	trackName: <name>
//	# numAnnotations: <count>
//	<time> <text>
//	...
//
// Lines starting with "#" are comments for the human reader; the parser
// discards them. A nil track name or annotation text renders as the sentinel
// glyph U+2400 ("␀"), which keeps an explicitly absent value distinguishable
// from the empty string across a parse/serialize round trip.
package anno

import (
	"fmt"
	"strings"
)

// NullGlyph is the reserved literal marking an explicitly absent track name
// or annotation text in the text notation. Any other literal, including the
// empty string, is an actual value.
const NullGlyph = "␀"

// Annotation is a single timed text event on a track.
type Annotation struct {
	// Time in seconds from the start of the animation. No range is enforced.
	Time float32

	// Text is the event payload, typically an engine event name. nil means
	// an explicit "no text", which is not the same as an empty string.
	Text *string
}

// Track is a named (or anonymous) ordered sequence of annotations. The order
// is event order along the track and is preserved as-is; annotations are
// never sorted by time.
type Track struct {
	// Name of the track. nil is an anonymous track, distinct from a track
	// named "".
	Name *string

	Annotations []Annotation
}

// Hkanno is one animation's full annotation data.
//
// NumOriginalFrames and Duration describe the source asset and exist for the
// human reader only. When an Hkanno originates from parsed text they are
// zero, and merging an Hkanno back into an object graph never writes them.
type Hkanno struct {
	// Ptr identifies the source object inside the graph (e.g. "#0010").
	// Diagnostic only.
	Ptr string

	NumOriginalFrames int32
	Duration          float32

	Tracks []Track
}

// Str returns a pointer to s. Convenience for building optional name/text
// values.
func Str(s string) *string { return &s }

// Detach returns a deep copy whose strings no longer alias the buffer this
// value was parsed or extracted from. Parse results borrow substrings of
// their input, so a few short annotation strings can keep a whole file
// buffer reachable; detach before caching an Hkanno or keeping it past the
// life of its source text.
func (h *Hkanno) Detach() *Hkanno {
	out := &Hkanno{
		Ptr:               strings.Clone(h.Ptr),
		NumOriginalFrames: h.NumOriginalFrames,
		Duration:          h.Duration,
	}
	if h.Tracks == nil {
		return out
	}
	out.Tracks = make([]Track, len(h.Tracks))
	for i, tr := range h.Tracks {
		ct := Track{Name: cloneOpt(tr.Name)}
		if tr.Annotations != nil {
			ct.Annotations = make([]Annotation, len(tr.Annotations))
			for j, a := range tr.Annotations {
				ct.Annotations[j] = Annotation{Time: a.Time, Text: cloneOpt(a.Text)}
			}
		}
		out.Tracks[i] = ct
	}
	return out
}

func cloneOpt(s *string) *string {
	if s == nil {
		return nil
	}
	c := strings.Clone(*s)
	return &c
}

// String renders the canonical text notation. It is total: every Hkanno
// value renders, and the track section of the output parses back to the same
// tracks. The header lines are advisory comments and are not read back by
// Parse.
//
// Annotation times are formatted with exactly six digits after the decimal
// point; external tooling relies on this layout.
func (h *Hkanno) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# numOriginalFrames: %d\n", h.NumOriginalFrames)
	fmt.Fprintf(&b, "# duration: %v\n", h.Duration)
	fmt.Fprintf(&b, "# numAnnotationTracks: %d\n", len(h.Tracks))
	b.WriteByte('\n')

	for _, tr := range h.Tracks {
		fmt.Fprintf(&b, "trackName: %s\n", orNull(tr.Name))
		fmt.Fprintf(&b, "# numAnnotations: %d\n", len(tr.Annotations))
		for _, a := range tr.Annotations {
			fmt.Fprintf(&b, "%.6f %s\n", a.Time, orNull(a.Text))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func orNull(s *string) string {
	if s == nil {
		return NullGlyph
	}
	return *s
}
