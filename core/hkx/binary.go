package hkx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hkforge/annokit/core/errors"
	"github.com/hkforge/annokit/core/graph"
)

// Binary container layout: a 6-byte header (magic, container version, flags)
// followed by three header strings (contents version, class version, top
// level object id), an object count, and the objects. All multi-byte values
// use the byte order named in the flags; lengths and counts are words whose
// width is also named in the flags.
var binMagic = []byte("HKAB")

const binVersion = 1

const (
	flagWide      = 1 << 0 // 64-bit length words
	flagBigEndian = 1 << 1
)

const (
	wordWide   = true
	wordNarrow = false
)

var defaultOrder = binary.ByteOrder(binary.LittleEndian)

const (
	objKindOpaque    = 0
	objKindAnimation = 1
)

const binFormat = "binary container"

// SerializeWithOrder encodes the graph like Serialize but with an explicit
// byte order for the binary formats. The order is recorded in the container
// flags, so Deserialize needs no out-of-band hint. FormatXML ignores order.
func SerializeWithOrder(g *graph.Graph, format OutFormat, order binary.ByteOrder) ([]byte, error) {
	switch format {
	case FormatXML:
		return serializeXML(g)
	case FormatAmd64:
		return serializeBinary(g, wordWide, order)
	case FormatWin32:
		return serializeBinary(g, wordNarrow, order)
	}
	return nil, errors.NewUnsupported(fmt.Sprintf("output format %q", format), "")
}

func serializeBinary(g *graph.Graph, wide bool, order binary.ByteOrder) ([]byte, error) {
	w := &binWriter{order: order, wide: wide}

	w.buf.Write(binMagic)
	w.u8(binVersion)
	var flags byte
	if wide {
		flags |= flagWide
	}
	if order == binary.ByteOrder(binary.BigEndian) {
		flags |= flagBigEndian
	}
	w.u8(flags)

	w.str(g.Version)
	w.str(g.ClassVersion)
	w.str(g.TopLevel)

	w.word(uint64(g.Len()))
	for _, obj := range g.Objects() {
		switch o := obj.(type) {
		case *graph.Opaque:
			w.u8(objKindOpaque)
			w.str(o.Ptr())
			w.str(o.Class())
			w.str(o.Raw)
		case graph.Animation:
			w.u8(objKindAnimation)
			w.str(o.Class())
			w.str(o.Ptr())
			w.f32(o.Duration())
			if n, ok := o.FrameCount(); ok {
				w.u8(1)
				w.u32(uint32(n))
			} else {
				w.u8(0)
			}
			w.params(o.BaseExtra())
			w.params(o.VariantExtra())
			tracks := o.AnnotationTracks()
			w.word(uint64(len(tracks)))
			for _, track := range tracks {
				w.optStr(track.TrackName)
				w.word(uint64(len(track.Annotations)))
				for _, ann := range track.Annotations {
					w.f32(ann.Time)
					w.optStr(ann.Text)
				}
			}
		default:
			return nil, errors.NewUnsupported(fmt.Sprintf("object class %q", obj.Class()), "not serializable")
		}
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func deserializeBinary(data []byte, path string) (*graph.Graph, error) {
	if len(data) < len(binMagic)+2 {
		return nil, errors.NewParse(binFormat, path, "truncated header")
	}
	if !bytes.HasPrefix(data, binMagic) {
		return nil, errors.NewParse(binFormat, path, "bad magic")
	}
	if v := data[len(binMagic)]; v != binVersion {
		return nil, errors.NewParse(binFormat, path, fmt.Sprintf("unsupported container version %d", v))
	}
	flags := data[len(binMagic)+1]

	r := &binReader{
		data: data,
		pos:  len(binMagic) + 2,
		wide: flags&flagWide != 0,
	}
	if flags&flagBigEndian != 0 {
		r.order = binary.BigEndian
	} else {
		r.order = binary.LittleEndian
	}

	g := graph.New()
	g.Version = r.str()
	g.ClassVersion = r.str()
	g.TopLevel = r.str()

	count := r.word()
	for i := uint64(0); i < count && r.err == nil; i++ {
		var obj graph.Object
		switch kind := r.u8(); kind {
		case objKindOpaque:
			obj = &graph.Opaque{ObjPtr: r.str(), ObjClass: r.str(), Raw: r.str()}
		case objKindAnimation:
			anim, err := r.animation(path)
			if err != nil {
				return nil, err
			}
			obj = anim
		default:
			return nil, errors.NewParse(binFormat, path, fmt.Sprintf("unknown object kind %d", kind))
		}
		if r.err != nil {
			break
		}
		if err := g.Add(obj); err != nil {
			return nil, errors.NewParse(binFormat, path, err.Error())
		}
	}

	if r.err != nil {
		return nil, &errors.ParseError{Format: binFormat, Path: path, Message: "truncated data", Err: r.err}
	}
	return g, nil
}

func (r *binReader) animation(path string) (graph.Animation, error) {
	class := r.str()
	ptr := r.str()

	var data graph.AnimationData
	data.Duration = r.f32()

	var numFrames int32
	if r.u8() != 0 {
		numFrames = int32(r.u32())
	}

	data.Extra = r.params()
	variantExtra := r.params()

	trackCount := r.word()
	for i := uint64(0); i < trackCount && r.err == nil; i++ {
		track := graph.AnnotationTrack{TrackName: r.optStr()}
		annCount := r.word()
		for j := uint64(0); j < annCount && r.err == nil; j++ {
			track.Annotations = append(track.Annotations, graph.TrackAnnotation{
				Time: r.f32(),
				Text: r.optStr(),
			})
		}
		data.AnnotationTracks = append(data.AnnotationTracks, track)
	}
	if r.err != nil {
		return nil, &errors.ParseError{Format: binFormat, Path: path, Message: "truncated animation object", Err: r.err}
	}

	anim, ok := graph.NewAnimation(class, ptr, data, numFrames)
	if !ok {
		return nil, errors.NewParse(binFormat, path, fmt.Sprintf("object %s: unknown class %q", ptr, class))
	}
	anim.SetVariantExtra(variantExtra)
	return anim, nil
}

// binWriter accumulates the container. A width overflow in narrow mode is
// recorded and surfaced once at the end.
type binWriter struct {
	buf   bytes.Buffer
	order binary.ByteOrder
	wide  bool
	err   error
}

func (w *binWriter) u8(v byte) { w.buf.WriteByte(v) }

func (w *binWriter) u32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) u64(v uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) word(v uint64) {
	if w.wide {
		w.u64(v)
		return
	}
	if v > math.MaxUint32 {
		if w.err == nil {
			w.err = fmt.Errorf("length %d overflows 32-bit words", v)
		}
		v = math.MaxUint32
	}
	w.u32(uint32(v))
}

func (w *binWriter) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *binWriter) str(s string) {
	w.word(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *binWriter) optStr(s *string) {
	if s == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.str(*s)
}

func (w *binWriter) params(params []graph.Param) {
	w.word(uint64(len(params)))
	for _, p := range params {
		w.str(p.Name)
		w.str(p.Value)
	}
}

// binReader decodes the container with a sticky error. After the first
// bounds failure every read returns a zero value.
type binReader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
	wide  bool
	err   error
}

func (r *binReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) || r.pos+n < r.pos {
		r.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *binReader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *binReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return r.order.Uint32(b)
}

func (r *binReader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return r.order.Uint64(b)
}

func (r *binReader) word() uint64 {
	if r.wide {
		return r.u64()
	}
	return uint64(r.u32())
}

func (r *binReader) f32() float32 { return math.Float32frombits(r.u32()) }

func (r *binReader) str() string {
	n := r.word()
	if n > uint64(len(r.data)) {
		if r.err == nil {
			r.err = fmt.Errorf("string length %d exceeds input size", n)
		}
		return ""
	}
	b := r.take(int(n))
	return string(b)
}

func (r *binReader) optStr() *string {
	if r.u8() == 0 {
		return nil
	}
	s := r.str()
	return &s
}

func (r *binReader) params() []graph.Param {
	count := r.word()
	var params []graph.Param
	for i := uint64(0); i < count && r.err == nil; i++ {
		params = append(params, graph.Param{Name: r.str(), Value: r.str()})
	}
	return params
}
