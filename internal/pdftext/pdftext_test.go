// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/web2llm/internal/arxiv"
	"github.com/pdiddy/web2llm/internal/fetch"
	"github.com/pdiddy/web2llm/pkg/types"
)

// samplePDF builds a PDF with one line of text per page.
func samplePDF(t *testing.T, title, author string, pages ...string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	if title != "" {
		doc.SetTitle(title, false)
	}
	if author != "" {
		doc.SetAuthor(author, false)
	}
	for _, text := range pages {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 12)
		doc.Cell(40, 10, text)
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// countingGetter records calls and always fails.
type countingGetter struct {
	calls int32
}

func (g *countingGetter) Get(_ context.Context, url string) (*fetch.Response, error) {
	atomic.AddInt32(&g.calls, 1)
	return nil, &types.NetworkError{URL: url, StatusCode: http.StatusNotFound}
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestExtract_PagesAndInfo(t *testing.T) {
	data := samplePDF(t, "Sample Report", "Jane Doe", "First page text", "Second page text")
	getter := &countingGetter{}

	doc, err := New(getter).Extract(context.Background(), data, "https://example.com/files/report.pdf")
	require.NoError(t, err)

	assert.Contains(t, doc.Body, "--- Page 1 ---")
	assert.Contains(t, doc.Body, "--- Page 2 ---")
	assert.Less(t, strings.Index(doc.Body, "--- Page 1 ---"), strings.Index(doc.Body, "--- Page 2 ---"))
	assert.Contains(t, squash(doc.Body), "Firstpagetext")
	assert.Contains(t, squash(doc.Body), "Secondpagetext")

	assert.Equal(t, "Sample Report", doc.Title)
	assert.Equal(t, "Sample Report", doc.Metadata["title"])
	assert.Equal(t, "Jane Doe", doc.Metadata["author"])
	assert.Equal(t, "2", doc.Metadata["pages"])
}

func TestExtract_NonArxivMakesNoNetworkCall(t *testing.T) {
	data := samplePDF(t, "Local Paper", "", "Body")
	getter := &countingGetter{}

	for _, source := range []string{"https://example.com/paper.pdf", "/tmp/paper.pdf"} {
		doc, err := New(getter).Extract(context.Background(), data, source)
		require.NoError(t, err)
		assert.Equal(t, "Local Paper", doc.Title)
		_, hasID := doc.Metadata["arxiv_id"]
		assert.False(t, hasID)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&getter.calls))
}

func TestExtract_ArxivUnreachableFallsBack(t *testing.T) {
	data := samplePDF(t, "Embedded Title", "Embedded Author", "Paper body")
	getter := &countingGetter{}

	doc, err := New(getter).Extract(context.Background(), data, "https://arxiv.org/pdf/2301.07041v2")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&getter.calls))
	assert.NotEmpty(t, strings.TrimSpace(doc.Body))
	assert.Equal(t, "Embedded Title", doc.Title)
	assert.Equal(t, "Embedded Author", doc.Metadata["author"])
	for key := range doc.Metadata {
		assert.NotContains(t, []string{"arxiv_id", "abstract", "authors", "abs_url"}, key)
	}
}

func TestExtract_ArxivEnrichment(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>
<h1 class="title">Title: Real Paper Title</h1>
<div class="authors"><a>Ada Lovelace</a></div>
<blockquote class="abstract">Abstract: We study things.</blockquote>
</body></html>`))
	}))
	defer ts.Close()

	old := arxiv.AbsBase
	arxiv.AbsBase = ts.URL + "/abs/"
	defer func() { arxiv.AbsBase = old }()

	client := fetch.New(types.HTTPConfig{Timeout: 5 * time.Second}, fetch.WithHTTPClient(ts.Client()))
	data := samplePDF(t, "Embedded Title", "", "Paper body")

	doc, err := New(client).Extract(context.Background(), data, "https://arxiv.org/pdf/2301.07041")
	require.NoError(t, err)

	assert.Equal(t, "Real Paper Title", doc.Title)
	assert.Equal(t, "Real Paper Title", doc.Metadata["title"])
	assert.Equal(t, "Ada Lovelace", doc.Metadata["authors"])
	assert.Equal(t, "We study things.", doc.Metadata["abstract"])
	assert.Equal(t, "2301.07041", doc.Metadata["arxiv_id"])
}

func TestExtract_TitleFallsBackToFileName(t *testing.T) {
	data := samplePDF(t, "", "", "Untitled content")

	doc, err := New(nil).Extract(context.Background(), data, "https://example.com/docs/whitepaper.pdf")
	require.NoError(t, err)
	assert.Equal(t, "whitepaper.pdf", doc.Title)
}

func TestExtract_Corrupt(t *testing.T) {
	tests := map[string][]byte{
		"not a pdf":       []byte("<html>definitely not a pdf</html>"),
		"truncated":       []byte("%PDF-1.4\n1 0 obj\n<<"),
		"empty":           nil,
		"garbage trailer": append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{0xde, 0xad}, 64)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(nil).Extract(context.Background(), data, "broken.pdf")
			require.Error(t, err)
			var corrupt *types.PdfCorruptError
			assert.True(t, errors.As(err, &corrupt))
			assert.Equal(t, "broken.pdf", corrupt.Source)
		})
	}
}

func TestReflow(t *testing.T) {
	in := "This is a long\nwrapped line with a hyph-\nenated word.\n\n  Second   paragraph.\n"
	assert.Equal(t, "This is a long wrapped line with a hyphenated word.\n\nSecond paragraph.", reflow(in))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2023-01-15T09:30:00Z", normalizeDate("D:20230115093000Z"))
	assert.Equal(t, "2023-01-01T00:00:00Z", normalizeDate("D:2023"))
	assert.Equal(t, "yesterday", normalizeDate("yesterday"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "paper.pdf", fileName("https://example.com/a/paper.pdf?x=1"))
	assert.Equal(t, "local.pdf", fileName("/home/me/local.pdf"))
	assert.Equal(t, "", fileName("https://example.com/"))
}
