package editor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hkforge/annokit/core/bridge"
	"github.com/hkforge/annokit/core/graph"
	"github.com/hkforge/annokit/core/hkx"
)

// writeAsset serializes a one-animation fixture graph to dir and returns its
// path.
func writeAsset(t *testing.T, dir string, format hkx.OutFormat) string {
	t.Helper()

	name := "HitFrames"
	hit := "HitStart"
	empty := ""

	g := graph.New()
	g.Version = "hk_2010.2.0-r1"
	g.ClassVersion = "8"
	g.TopLevel = "#0008"
	if err := g.Add(&graph.Opaque{
		ObjPtr:   "#0008",
		ObjClass: "hkaAnimationContainer",
		Raw:      `<hkobject name="#0008" class="hkaAnimationContainer"><hkparam name="animations" numelements="1">#0010</hkparam></hkobject>`,
	}); err != nil {
		t.Fatal(err)
	}
	anim := graph.NewSplineCompressed("#0010", graph.AnimationData{
		Duration: 2.5,
		AnnotationTracks: []graph.AnnotationTrack{
			{
				TrackName: &name,
				Annotations: []graph.TrackAnnotation{
					{Time: 0.25, Text: &hit},
					{Time: 1.5, Text: nil},
					{Time: 2.0, Text: &empty},
				},
			},
			{TrackName: nil},
		},
	}, 41)
	if err := g.Add(anim); err != nil {
		t.Fatal(err)
	}

	data, err := hkx.Serialize(g, format)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	path := filepath.Join(dir, "fixture"+format.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadAnnotations(t *testing.T) {
	path := writeAsset(t, t.TempDir(), hkx.FormatXML)

	text, err := ReadAnnotations(path)
	if err != nil {
		t.Fatalf("ReadAnnotations: %v", err)
	}

	for _, want := range []string{
		"# numOriginalFrames: 41\n",
		"# duration: 2.5\n",
		"# numAnnotationTracks: 2\n",
		"trackName: HitFrames\n",
		"0.250000 HitStart\n",
		"1.500000 \u2400\n",
		"2.000000 \n",
		"trackName: \u2400\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("dump missing %q:\n%s", want, text)
		}
	}
}

func TestReadAnnotationsBinaryAsset(t *testing.T) {
	path := writeAsset(t, t.TempDir(), hkx.FormatWin32)

	text, err := ReadAnnotations(path)
	if err != nil {
		t.Fatalf("ReadAnnotations: %v", err)
	}
	if !strings.Contains(text, "trackName: HitFrames\n") {
		t.Errorf("dump from binary asset missing track:\n%s", text)
	}
}

func TestReadAnnotationsMissingFile(t *testing.T) {
	_, err := ReadAnnotations(filepath.Join(t.TempDir(), "absent.hkx"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not unwrap to os.ErrNotExist", err)
	}
}

func TestReadAnnotationsBytesNoAnimation(t *testing.T) {
	input := `<hkpackfile>
	<hksection name="__data__">
		<hkobject name="#0008" class="hkaAnimationContainer"></hkobject>
	</hksection>
</hkpackfile>`

	_, err := ReadAnnotationsBytes([]byte(input), "container-only.xml")
	if err == nil {
		t.Fatal("expected error for asset without an animation object")
	}
	if !errors.Is(err, bridge.ErrMissingAnimation) {
		t.Errorf("error %v does not unwrap to ErrMissingAnimation", err)
	}
}

const reworkedText = `# numOriginalFrames: 9999
# duration: 123.0
# numAnnotationTracks: 1

trackName: Reworked
# numAnnotations: 2
0.500000 attackStart
1.250000 attackEnd
`

func TestApplyAnnotations(t *testing.T) {
	dir := t.TempDir()
	input := writeAsset(t, dir, hkx.FormatXML)
	output := filepath.Join(dir, "out.hkx")

	if err := ApplyAnnotations(input, output, reworkedText, hkx.FormatWin32); err != nil {
		t.Fatalf("ApplyAnnotations: %v", err)
	}

	text, err := ReadAnnotations(output)
	if err != nil {
		t.Fatalf("ReadAnnotations after apply: %v", err)
	}

	// Track list replaced.
	for _, want := range []string{
		"trackName: Reworked\n",
		"0.500000 attackStart\n",
		"1.250000 attackEnd\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("updated asset missing %q:\n%s", want, text)
		}
	}
	// Header values in the text are ignored; the asset keeps its own.
	if !strings.Contains(text, "# numOriginalFrames: 41\n") {
		t.Errorf("frame count was overwritten:\n%s", text)
	}
	if !strings.Contains(text, "# duration: 2.5\n") {
		t.Errorf("duration was overwritten:\n%s", text)
	}
	if strings.Contains(text, "HitFrames") {
		t.Errorf("old track survived the update:\n%s", text)
	}
}

func TestApplyAnnotationsInPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeAsset(t, dir, hkx.FormatXML)

	if err := ApplyAnnotations(path, path, reworkedText, hkx.FormatXML); err != nil {
		t.Fatalf("ApplyAnnotations in place: %v", err)
	}

	text, err := ReadAnnotations(path)
	if err != nil {
		t.Fatalf("ReadAnnotations: %v", err)
	}
	if !strings.Contains(text, "trackName: Reworked\n") {
		t.Errorf("in-place update missing new track:\n%s", text)
	}
}

func TestApplyAnnotationsBadText(t *testing.T) {
	dir := t.TempDir()
	input := writeAsset(t, dir, hkx.FormatXML)
	output := filepath.Join(dir, "out.hkx")

	err := ApplyAnnotations(input, output, "0.5 orphan annotation\n", hkx.FormatXML)
	if err == nil {
		t.Fatal("expected parse error for annotation before any track")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output file written despite parse error")
	}
}

func TestPreviewXML(t *testing.T) {
	dir := t.TempDir()
	input := writeAsset(t, dir, hkx.FormatWin32)
	before, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}

	preview, err := PreviewXML(input, reworkedText)
	if err != nil {
		t.Fatalf("PreviewXML: %v", err)
	}
	if !strings.Contains(preview, "<hkpackfile") {
		t.Errorf("preview is not an XML tagfile:\n%s", preview)
	}
	if !strings.Contains(preview, "attackStart") {
		t.Errorf("preview missing merged annotation:\n%s", preview)
	}

	after, err := os.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("PreviewXML modified the input file")
	}
}

func TestSourceDigest(t *testing.T) {
	a := SourceDigest([]byte("alpha"))
	b := SourceDigest([]byte("beta"))

	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("different inputs produced the same digest")
	}
	if a != SourceDigest([]byte("alpha")) {
		t.Error("digest is not deterministic")
	}
}
