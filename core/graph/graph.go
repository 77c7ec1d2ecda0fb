// Package graph models the object graph deserialized from a Havok animation
// asset: an ordered collection of typed objects keyed by opaque identifiers.
//
// The editor understands the six hkaAnimation-derived classes; every other
// class is carried as an Opaque object holding its raw serialized form, so a
// graph survives a deserialize/serialize round trip untouched.
package graph

import "fmt"

// Class names of the six animation-derived object kinds.
const (
	ClassAnimation               = "hkaAnimation"
	ClassDeltaCompressed         = "hkaDeltaCompressedAnimation"
	ClassInterleavedUncompressed = "hkaInterleavedUncompressedAnimation"
	ClassQuantized               = "hkaQuantizedAnimation"
	ClassSplineCompressed        = "hkaSplineCompressedAnimation"
	ClassWaveletCompressed       = "hkaWaveletCompressedAnimation"
)

// IsAnimationClass reports whether class names one of the six
// hkaAnimation-derived kinds.
func IsAnimationClass(class string) bool {
	switch class {
	case ClassAnimation, ClassDeltaCompressed, ClassInterleavedUncompressed,
		ClassQuantized, ClassSplineCompressed, ClassWaveletCompressed:
		return true
	}
	return false
}

// TrackAnnotation is the graph-side form of one timed text event.
type TrackAnnotation struct {
	Time float32
	Text *string // nil is an explicit null string
}

// AnnotationTrack is the graph-side form of one annotation track.
type AnnotationTrack struct {
	TrackName   *string // nil is an explicit null string
	Annotations []TrackAnnotation
}

// Param is an object field the editor does not model, preserved verbatim for
// round-tripping. Value holds the field's serialized payload.
type Param struct {
	Name  string
	Value string
}

// Object is one entry in the graph.
type Object interface {
	// Ptr is the object's opaque identifier within the graph, e.g. "#0010".
	Ptr() string
	// Class is the object's class name.
	Class() string
}

// Animation is implemented by the six hkaAnimation-derived classes. It
// normalizes the per-variant field nesting behind one accessor set, so
// callers never branch on the concrete variant.
type Animation interface {
	Object

	// Duration of the animation in seconds.
	Duration() float32

	// FrameCount reports the variant's explicit frame count. Only the
	// spline-compressed variant stores one; the others return false.
	FrameCount() (int32, bool)

	AnnotationTracks() []AnnotationTrack
	SetAnnotationTracks(tracks []AnnotationTrack)

	// BaseExtra returns the unmodeled base-class fields.
	BaseExtra() []Param

	// VariantExtra returns the unmodeled fields of the concrete variant.
	// The bare base class has no variant level and folds these into the
	// base fields.
	VariantExtra() []Param
	SetVariantExtra(params []Param)
}

// AnimationData holds the hkaAnimation base fields. The bare base class
// stores them directly on the object; the five compressed variants nest
// them one level down, matching the source asset layout.
type AnimationData struct {
	Duration         float32
	AnnotationTracks []AnnotationTrack

	// Extra carries base-class fields the editor does not model.
	Extra []Param
}

// BaseAnimation is a bare hkaAnimation object. Its fields sit directly on
// the object rather than under a parent block.
type BaseAnimation struct {
	ObjPtr string
	Data   AnimationData
}

func (a *BaseAnimation) Ptr() string       { return a.ObjPtr }
func (a *BaseAnimation) Class() string     { return ClassAnimation }
func (a *BaseAnimation) Duration() float32 { return a.Data.Duration }

func (a *BaseAnimation) FrameCount() (int32, bool) { return 0, false }

func (a *BaseAnimation) AnnotationTracks() []AnnotationTrack { return a.Data.AnnotationTracks }

func (a *BaseAnimation) SetAnnotationTracks(tracks []AnnotationTrack) {
	a.Data.AnnotationTracks = tracks
}

func (a *BaseAnimation) BaseExtra() []Param { return a.Data.Extra }

func (a *BaseAnimation) VariantExtra() []Param { return nil }

func (a *BaseAnimation) SetVariantExtra(params []Param) {
	a.Data.Extra = append(a.Data.Extra, params...)
}

// derivedAnimation supplies the accessor set shared by the five variants
// that nest the base fields under Parent.
type derivedAnimation struct {
	ObjPtr string
	Parent AnimationData

	// Extra carries variant-level fields the editor does not model.
	Extra []Param
}

func (a *derivedAnimation) Ptr() string       { return a.ObjPtr }
func (a *derivedAnimation) Duration() float32 { return a.Parent.Duration }

func (a *derivedAnimation) FrameCount() (int32, bool) { return 0, false }

func (a *derivedAnimation) AnnotationTracks() []AnnotationTrack { return a.Parent.AnnotationTracks }

func (a *derivedAnimation) SetAnnotationTracks(tracks []AnnotationTrack) {
	a.Parent.AnnotationTracks = tracks
}

func (a *derivedAnimation) BaseExtra() []Param { return a.Parent.Extra }

func (a *derivedAnimation) VariantExtra() []Param { return a.Extra }

func (a *derivedAnimation) SetVariantExtra(params []Param) { a.Extra = params }

// DeltaCompressedAnimation is an hkaDeltaCompressedAnimation object.
type DeltaCompressedAnimation struct{ derivedAnimation }

func (a *DeltaCompressedAnimation) Class() string { return ClassDeltaCompressed }

// InterleavedUncompressedAnimation is an hkaInterleavedUncompressedAnimation
// object.
type InterleavedUncompressedAnimation struct{ derivedAnimation }

func (a *InterleavedUncompressedAnimation) Class() string { return ClassInterleavedUncompressed }

// QuantizedAnimation is an hkaQuantizedAnimation object.
type QuantizedAnimation struct{ derivedAnimation }

func (a *QuantizedAnimation) Class() string { return ClassQuantized }

// WaveletCompressedAnimation is an hkaWaveletCompressedAnimation object.
type WaveletCompressedAnimation struct{ derivedAnimation }

func (a *WaveletCompressedAnimation) Class() string { return ClassWaveletCompressed }

// SplineCompressedAnimation is an hkaSplineCompressedAnimation object. It is
// the one variant that stores an explicit frame count.
type SplineCompressedAnimation struct {
	derivedAnimation
	NumFrames int32
}

func (a *SplineCompressedAnimation) Class() string { return ClassSplineCompressed }

func (a *SplineCompressedAnimation) FrameCount() (int32, bool) { return a.NumFrames, true }

// NewBase constructs a bare hkaAnimation object.
func NewBase(ptr string, data AnimationData) *BaseAnimation {
	return &BaseAnimation{ObjPtr: ptr, Data: data}
}

// NewDeltaCompressed constructs an hkaDeltaCompressedAnimation object.
func NewDeltaCompressed(ptr string, parent AnimationData) *DeltaCompressedAnimation {
	return &DeltaCompressedAnimation{derivedAnimation{ObjPtr: ptr, Parent: parent}}
}

// NewInterleavedUncompressed constructs an hkaInterleavedUncompressedAnimation
// object.
func NewInterleavedUncompressed(ptr string, parent AnimationData) *InterleavedUncompressedAnimation {
	return &InterleavedUncompressedAnimation{derivedAnimation{ObjPtr: ptr, Parent: parent}}
}

// NewQuantized constructs an hkaQuantizedAnimation object.
func NewQuantized(ptr string, parent AnimationData) *QuantizedAnimation {
	return &QuantizedAnimation{derivedAnimation{ObjPtr: ptr, Parent: parent}}
}

// NewWaveletCompressed constructs an hkaWaveletCompressedAnimation object.
func NewWaveletCompressed(ptr string, parent AnimationData) *WaveletCompressedAnimation {
	return &WaveletCompressedAnimation{derivedAnimation{ObjPtr: ptr, Parent: parent}}
}

// NewSplineCompressed constructs an hkaSplineCompressedAnimation object.
func NewSplineCompressed(ptr string, parent AnimationData, numFrames int32) *SplineCompressedAnimation {
	return &SplineCompressedAnimation{
		derivedAnimation: derivedAnimation{ObjPtr: ptr, Parent: parent},
		NumFrames:        numFrames,
	}
}

// NewAnimation constructs the variant matching class. numFrames is used only
// by the spline-compressed variant. Returns false when class is not one of
// the six animation-derived kinds.
func NewAnimation(class, ptr string, data AnimationData, numFrames int32) (Animation, bool) {
	switch class {
	case ClassAnimation:
		return NewBase(ptr, data), true
	case ClassDeltaCompressed:
		return NewDeltaCompressed(ptr, data), true
	case ClassInterleavedUncompressed:
		return NewInterleavedUncompressed(ptr, data), true
	case ClassQuantized:
		return NewQuantized(ptr, data), true
	case ClassSplineCompressed:
		return NewSplineCompressed(ptr, data, numFrames), true
	case ClassWaveletCompressed:
		return NewWaveletCompressed(ptr, data), true
	}
	return nil, false
}

// Opaque is a graph object the editor does not model. Raw holds the object's
// serialized form exactly as read so it can be re-emitted verbatim.
type Opaque struct {
	ObjPtr   string
	ObjClass string
	Raw      string
}

func (o *Opaque) Ptr() string   { return o.ObjPtr }
func (o *Opaque) Class() string { return o.ObjClass }

// Graph is the ordered object collection for one asset file.
type Graph struct {
	// Version is the content version string from the asset header, e.g.
	// "hk_2010.2.0-r1". Preserved through round trips.
	Version string

	// ClassVersion is the class layout version from the asset header.
	ClassVersion string

	// TopLevel is the identifier of the asset's root object, e.g. "#0008".
	TopLevel string

	objects []Object
	byPtr   map[string]Object
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{byPtr: make(map[string]Object)}
}

// Add appends obj to the graph. Objects with a non-empty identifier are also
// indexed for Lookup; a duplicate identifier is an error.
func (g *Graph) Add(obj Object) error {
	if ptr := obj.Ptr(); ptr != "" {
		if _, exists := g.byPtr[ptr]; exists {
			return fmt.Errorf("graph: duplicate object id %s", ptr)
		}
		g.byPtr[ptr] = obj
	}
	g.objects = append(g.objects, obj)
	return nil
}

// Objects returns the graph's objects in insertion order. The slice is owned
// by the graph; callers must not modify it.
func (g *Graph) Objects() []Object { return g.objects }

// Lookup returns the object with the given identifier.
func (g *Graph) Lookup(ptr string) (Object, bool) {
	obj, ok := g.byPtr[ptr]
	return obj, ok
}

// Len returns the number of objects in the graph.
func (g *Graph) Len() int { return len(g.objects) }
