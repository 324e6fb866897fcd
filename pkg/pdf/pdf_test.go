package pdf

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"slices"
	"testing"

	rpdf "github.com/digitorus/pdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// newMaster renders a document whose page i reads "Master page i".
func newMaster(t *testing.T, pages int) []byte {
	t.Helper()

	doc := gofpdf.New("P", "pt", "A5", "")
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 14)
		doc.Text(40, 120, fmt.Sprintf("Master page %d", i))
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// newEmptyDocument writes a structurally valid PDF whose page tree has no kids.
func newEmptyDocument() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func openReader(t *testing.T, data []byte) *rpdf.Reader {
	t.Helper()
	r, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func readStream(t *testing.T, v rpdf.Value) []byte {
	t.Helper()
	rc := v.Reader()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

// pageContent returns the decoded content streams of page num (1-based).
func pageContent(t *testing.T, r *rpdf.Reader, num int) []byte {
	t.Helper()

	contents := r.Page(num).V.Key("Contents")
	if contents.Kind() != rpdf.Array {
		return readStream(t, contents)
	}

	var out []byte
	for i := 0; i < contents.Len(); i++ {
		out = append(out, readStream(t, contents.Index(i))...)
		out = append(out, '\n')
	}
	return out
}

// formContent returns the decoded streams of every form XObject reachable from res.
func formContent(t *testing.T, res rpdf.Value, depth int) []byte {
	t.Helper()
	if depth == 0 {
		return nil
	}

	var out []byte
	xobjects := res.Key("XObject")
	for _, name := range xobjects.Keys() {
		xo := xobjects.Key(name)
		if xo.Key("Subtype").Name() != "Form" {
			continue
		}
		out = append(out, readStream(t, xo)...)
		out = append(out, formContent(t, xo.Key("Resources"), depth-1)...)
	}
	return out
}

var doOperator = regexp.MustCompile(`/([^\s/\[\]<>()]+)\s+Do\b`)

// xobjectCalls lists the XObject names painted by a content stream.
func xobjectCalls(content []byte) []string {
	var names []string
	for _, m := range doOperator.FindAllSubmatch(content, -1) {
		names = append(names, string(m[1]))
	}
	return names
}

// newXObjectCalls returns the names in after that are not in before.
func newXObjectCalls(before, after []string) []string {
	var added []string
	for _, name := range after {
		if !slices.Contains(before, name) {
			added = append(added, name)
		}
	}
	return added
}
