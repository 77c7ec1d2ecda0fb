// Package bridge connects the object graph with the annotation domain
// model: it locates the single animation object inside a graph, extracts an
// anno.Hkanno from it, and merges an edited Hkanno back into it.
//
// Both directions are pure in-memory transforms; no file I/O happens here.
package bridge

import (
	"errors"
	"fmt"

	"github.com/hkforge/annokit/core/anno"
	"github.com/hkforge/annokit/core/graph"
)

// FallbackFPS is the frame rate assumed when a variant does not store an
// explicit frame count. Hardcoded at 30 to match the established tooling;
// whether that is asset-accurate for every variant is an open question, but
// the value is informational only and never written back.
const FallbackFPS = 30.0

// ErrMissingAnimation reports a graph with no hkaAnimation-derived object.
var ErrMissingAnimation = errors.New("no hkaAnimation-derived object found in graph")

// MultipleAnimationsError reports an ambiguous graph. The ambiguity is never
// resolved by a heuristic; the count is carried for diagnostics.
type MultipleAnimationsError struct {
	Count int
}

func (e *MultipleAnimationsError) Error() string {
	return fmt.Sprintf("expected one hkaAnimation-derived object per asset, found %d", e.Count)
}

// FindAnimation scans g and returns its single animation object. Zero
// matches yields ErrMissingAnimation, two or more a
// *MultipleAnimationsError.
func FindAnimation(g *graph.Graph) (graph.Animation, error) {
	var found graph.Animation
	count := 0
	for _, obj := range g.Objects() {
		if a, ok := obj.(graph.Animation); ok {
			found = a
			count++
		}
	}
	switch count {
	case 0:
		return nil, ErrMissingAnimation
	case 1:
		return found, nil
	default:
		return nil, &MultipleAnimationsError{Count: count}
	}
}

// Extract builds a domain model from the one animation object in g.
//
// The spline-compressed variant carries its frame count verbatim; for the
// other variants the count is estimated as duration * FallbackFPS, truncated
// to int32. Tracks are copied out of the graph, preserving order.
func Extract(g *graph.Graph) (*anno.Hkanno, error) {
	a, err := FindAnimation(g)
	if err != nil {
		return nil, err
	}

	frames, explicit := a.FrameCount()
	if !explicit {
		frames = int32(a.Duration() * FallbackFPS)
	}

	h := &anno.Hkanno{
		Ptr:               a.Ptr(),
		NumOriginalFrames: frames,
		Duration:          a.Duration(),
	}
	for _, tr := range a.AnnotationTracks() {
		t := anno.Track{Name: tr.TrackName}
		for _, ga := range tr.Annotations {
			t.Annotations = append(t.Annotations, anno.Annotation{Time: ga.Time, Text: ga.Text})
		}
		h.Tracks = append(h.Tracks, t)
	}
	return h, nil
}

// Merge replaces the track list of the one animation object in g with h's
// tracks. The replacement is wholesale; there is no per-track diffing.
//
// Duration and the frame-count field are deliberately left untouched: text
// sources carry zeroed or hand-edited header values, so only the track
// content is trusted from user input.
func Merge(h *anno.Hkanno, g *graph.Graph) error {
	a, err := FindAnimation(g)
	if err != nil {
		return err
	}

	tracks := make([]graph.AnnotationTrack, 0, len(h.Tracks))
	for _, tr := range h.Tracks {
		gt := graph.AnnotationTrack{TrackName: tr.Name}
		for _, an := range tr.Annotations {
			gt.Annotations = append(gt.Annotations, graph.TrackAnnotation{Time: an.Time, Text: an.Text})
		}
		tracks = append(tracks, gt)
	}
	a.SetAnnotationTracks(tracks)
	return nil
}
