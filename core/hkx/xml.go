package hkx

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/hkforge/annokit/core/anno"
	"github.com/hkforge/annokit/core/encoding"
	"github.com/hkforge/annokit/core/errors"
	"github.com/hkforge/annokit/core/graph"
)

const xmlFormat = "XML tagfile"

// deserializeXML parses an XML tagfile into an object graph. Objects of
// classes the editor does not model are preserved as raw XML.
func deserializeXML(data []byte, path string) (*graph.Graph, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: xmlFormat, Path: path, Message: "malformed document", Err: err}
	}

	pack := xmlquery.FindOne(doc, "//hkpackfile")
	if pack == nil {
		return nil, errors.NewParse(xmlFormat, path, "missing hkpackfile root element")
	}

	g := graph.New()
	g.ClassVersion = pack.SelectAttr("classversion")
	g.Version = pack.SelectAttr("contentsversion")
	g.TopLevel = pack.SelectAttr("toplevelobject")

	section := xmlquery.FindOne(pack, "hksection[@name='__data__']")
	if section == nil {
		section = xmlquery.FindOne(pack, "hksection")
	}
	if section == nil {
		return nil, errors.NewParse(xmlFormat, path, "missing hksection element")
	}

	for node := section.FirstChild; node != nil; node = node.NextSibling {
		if node.Type != xmlquery.ElementNode || node.Data != "hkobject" {
			continue
		}
		ptr := node.SelectAttr("name")
		class := node.SelectAttr("class")

		var obj graph.Object
		if graph.IsAnimationClass(class) {
			anim, err := parseAnimationNode(node, class, ptr, path)
			if err != nil {
				return nil, err
			}
			obj = anim
		} else {
			obj = &graph.Opaque{ObjPtr: ptr, ObjClass: class, Raw: node.OutputXML(true)}
		}
		if err := g.Add(obj); err != nil {
			return nil, errors.NewParse(xmlFormat, path, err.Error())
		}
	}
	return g, nil
}

// parseAnimationNode reads one hkobject of an animation-derived class. The
// bare base class carries its fields directly; the compressed variants nest
// them under a parent block.
func parseAnimationNode(obj *xmlquery.Node, class, ptr, path string) (graph.Animation, error) {
	baseNode := obj
	var (
		variantExtra []graph.Param
		numFrames    int32
	)

	if class != graph.ClassAnimation {
		baseNode = nil
		for child := obj.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode || child.Data != "hkparam" {
				continue
			}
			name := child.SelectAttr("name")
			switch {
			case name == "parent":
				baseNode = firstElement(child, "hkobject")
			case name == "numFrames" && class == graph.ClassSplineCompressed:
				n, err := strconv.ParseInt(strings.TrimSpace(child.InnerText()), 10, 32)
				if err != nil {
					return nil, errors.NewParse(xmlFormat, path,
						fmt.Sprintf("object %s: bad numFrames %q", ptr, child.InnerText()))
				}
				numFrames = int32(n)
			default:
				variantExtra = append(variantExtra, graph.Param{Name: name, Value: innerXML(child)})
			}
		}
		if baseNode == nil {
			return nil, errors.NewParse(xmlFormat, path,
				fmt.Sprintf("object %s (%s) has no parent block", ptr, class))
		}
	}

	data, err := parseBaseBlock(baseNode, ptr, path)
	if err != nil {
		return nil, err
	}

	anim, ok := graph.NewAnimation(class, ptr, data, numFrames)
	if !ok {
		return nil, errors.NewParse(xmlFormat, path, fmt.Sprintf("object %s: unknown class %s", ptr, class))
	}
	anim.SetVariantExtra(variantExtra)
	return anim, nil
}

// parseBaseBlock reads the hkaAnimation base fields from the hkobject that
// holds them.
func parseBaseBlock(node *xmlquery.Node, ptr, path string) (graph.AnimationData, error) {
	var data graph.AnimationData
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || child.Data != "hkparam" {
			continue
		}
		name := child.SelectAttr("name")
		switch name {
		case "duration":
			f, err := strconv.ParseFloat(strings.TrimSpace(child.InnerText()), 32)
			if err != nil {
				return data, errors.NewParse(xmlFormat, path,
					fmt.Sprintf("object %s: bad duration %q", ptr, child.InnerText()))
			}
			data.Duration = float32(f)
		case "annotationTracks":
			tracks, err := parseTracks(child, ptr, path)
			if err != nil {
				return data, err
			}
			data.AnnotationTracks = tracks
		default:
			data.Extra = append(data.Extra, graph.Param{Name: name, Value: innerXML(child)})
		}
	}
	return data, nil
}

func parseTracks(node *xmlquery.Node, ptr, path string) ([]graph.AnnotationTrack, error) {
	var tracks []graph.AnnotationTrack
	for trackNode := node.FirstChild; trackNode != nil; trackNode = trackNode.NextSibling {
		if trackNode.Type != xmlquery.ElementNode || trackNode.Data != "hkobject" {
			continue
		}
		var track graph.AnnotationTrack
		for child := trackNode.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode || child.Data != "hkparam" {
				continue
			}
			switch child.SelectAttr("name") {
			case "trackName":
				track.TrackName = optText(child.InnerText())
			case "annotations":
				annotations, err := parseAnnotations(child, ptr, path)
				if err != nil {
					return nil, err
				}
				track.Annotations = annotations
			}
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func parseAnnotations(node *xmlquery.Node, ptr, path string) ([]graph.TrackAnnotation, error) {
	var annotations []graph.TrackAnnotation
	for annNode := node.FirstChild; annNode != nil; annNode = annNode.NextSibling {
		if annNode.Type != xmlquery.ElementNode || annNode.Data != "hkobject" {
			continue
		}
		var ann graph.TrackAnnotation
		for child := annNode.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode || child.Data != "hkparam" {
				continue
			}
			switch child.SelectAttr("name") {
			case "time":
				f, err := strconv.ParseFloat(strings.TrimSpace(child.InnerText()), 32)
				if err != nil {
					return nil, errors.NewParse(xmlFormat, path,
						fmt.Sprintf("object %s: bad annotation time %q", ptr, child.InnerText()))
				}
				ann.Time = float32(f)
			case "text":
				ann.Text = optText(child.InnerText())
			}
		}
		annotations = append(annotations, ann)
	}
	return annotations, nil
}

// optText maps the null sentinel glyph to a nil string.
func optText(s string) *string {
	if s == anno.NullGlyph {
		return nil
	}
	return &s
}

func firstElement(n *xmlquery.Node, name string) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == name {
			return child
		}
	}
	return nil
}

// innerXML returns the serialized content of a node, exactly as parsed.
func innerXML(n *xmlquery.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		buf.WriteString(child.OutputXML(true))
	}
	return buf.String()
}

// serializeXML renders the graph as an XML tagfile. Opaque objects are
// re-emitted verbatim.
func serializeXML(g *graph.Graph) ([]byte, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="ascii"?>` + "\n")
	b.WriteString("<hkpackfile")
	writeAttr(&b, "classversion", g.ClassVersion)
	writeAttr(&b, "contentsversion", g.Version)
	writeAttr(&b, "toplevelobject", g.TopLevel)
	b.WriteString(">\n\n")
	b.WriteString("\t<hksection name=\"__data__\">\n\n")

	for _, obj := range g.Objects() {
		switch o := obj.(type) {
		case *graph.Opaque:
			b.WriteString("\t\t")
			b.WriteString(o.Raw)
			b.WriteString("\n\n")
		case graph.Animation:
			writeAnimation(&b, o)
		default:
			return nil, errors.NewUnsupported("object class "+strconv.Quote(obj.Class()), "not serializable")
		}
	}

	b.WriteString("\t</hksection>\n\n")
	b.WriteString("</hkpackfile>\n")
	return []byte(b.String()), nil
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("=\"")
	b.WriteString(encoding.EscapeXMLAttr(value))
	b.WriteString("\"")
}

func writeAnimation(b *strings.Builder, a graph.Animation) {
	fmt.Fprintf(b, "\t\t<hkobject name=\"%s\" class=\"%s\">\n",
		encoding.EscapeXMLAttr(a.Ptr()), encoding.EscapeXMLAttr(a.Class()))

	if a.Class() == graph.ClassAnimation {
		writeBaseParams(b, a, 3)
	} else {
		b.WriteString("\t\t\t<hkparam name=\"parent\">\n")
		b.WriteString("\t\t\t\t<hkobject>\n")
		writeBaseParams(b, a, 5)
		b.WriteString("\t\t\t\t</hkobject>\n")
		b.WriteString("\t\t\t</hkparam>\n")
		if n, ok := a.FrameCount(); ok {
			fmt.Fprintf(b, "\t\t\t<hkparam name=\"numFrames\">%d</hkparam>\n", n)
		}
		for _, p := range a.VariantExtra() {
			writeRawParam(b, p, 3)
		}
	}

	b.WriteString("\t\t</hkobject>\n\n")
}

func writeBaseParams(b *strings.Builder, a graph.Animation, depth int) {
	indent := strings.Repeat("\t", depth)
	fmt.Fprintf(b, "%s<hkparam name=\"duration\">%s</hkparam>\n", indent, formatFloat(a.Duration()))

	tracks := a.AnnotationTracks()
	fmt.Fprintf(b, "%s<hkparam name=\"annotationTracks\" numelements=\"%d\">\n", indent, len(tracks))
	for _, track := range tracks {
		fmt.Fprintf(b, "%s\t<hkobject>\n", indent)
		fmt.Fprintf(b, "%s\t\t<hkparam name=\"trackName\">%s</hkparam>\n",
			indent, encoding.EscapeXMLText(textOrNull(track.TrackName)))
		fmt.Fprintf(b, "%s\t\t<hkparam name=\"annotations\" numelements=\"%d\">\n",
			indent, len(track.Annotations))
		for _, ann := range track.Annotations {
			fmt.Fprintf(b, "%s\t\t\t<hkobject>\n", indent)
			fmt.Fprintf(b, "%s\t\t\t\t<hkparam name=\"time\">%s</hkparam>\n", indent, formatFloat(ann.Time))
			fmt.Fprintf(b, "%s\t\t\t\t<hkparam name=\"text\">%s</hkparam>\n",
				indent, encoding.EscapeXMLText(textOrNull(ann.Text)))
			fmt.Fprintf(b, "%s\t\t\t</hkobject>\n", indent)
		}
		fmt.Fprintf(b, "%s\t\t</hkparam>\n", indent)
		fmt.Fprintf(b, "%s\t</hkobject>\n", indent)
	}
	fmt.Fprintf(b, "%s</hkparam>\n", indent)

	for _, p := range a.BaseExtra() {
		writeRawParam(b, p, depth)
	}
}

// writeRawParam re-emits an unmodeled field. Value holds serialized XML and
// is written without re-escaping.
func writeRawParam(b *strings.Builder, p graph.Param, depth int) {
	indent := strings.Repeat("\t", depth)
	fmt.Fprintf(b, "%s<hkparam name=\"%s\">%s</hkparam>\n", indent, encoding.EscapeXMLAttr(p.Name), p.Value)
}

func textOrNull(s *string) string {
	if s == nil {
		return anno.NullGlyph
	}
	return *s
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', 6, 32)
}
