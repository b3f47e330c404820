package readers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

type stubReader struct {
	kind  domain.SourceKind
	calls []string
}

func (s *stubReader) Kind() domain.SourceKind { return s.kind }

func (s *stubReader) Read(_ context.Context, ref string) ([]domain.Segment, error) {
	s.calls = append(s.calls, ref)
	return []domain.Segment{{Source: ref, Content: s.kind.String()}}, nil
}

func TestDefaultRegistry_CoversEveryKind(t *testing.T) {
	r := DefaultRegistry(Config{})
	assert.Empty(t, r.Missing())
}

func TestRegistry_DispatchesByKind(t *testing.T) {
	r := NewRegistry()
	pdf := &stubReader{kind: domain.SourcePdf}
	web := &stubReader{kind: domain.SourceWebPage}
	r.Register(pdf)
	r.Register(web)

	segs, err := r.Read(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", segs[0].Content)

	_, err = r.Read(context.Background(), "https://example.com/report.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"report.pdf"}, pdf.calls)
	assert.Equal(t, []string{"https://example.com/report.pdf"}, web.calls)
}

func TestRegistry_MissingReader(t *testing.T) {
	r := NewRegistry()
	_, err := r.Read(context.Background(), "notes.txt")
	assert.True(t, errors.Is(err, domain.ErrSourceUnreadable))
	assert.Len(t, r.Missing(), len(domain.AllSourceKinds()))
}

func TestPlainTextReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\r\nline two\n"), 0o644))

	segs, err := (&PlainTextReader{}).Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "line one\nline two\n", segs[0].Content)
	assert.Equal(t, "notes.txt", segs[0].Source, "source drops the processed marker")
}

func TestPlainTextReader_Errors(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(binary, []byte{0xff, 0xfe, 0x00, 0x81}, 0o644))

	_, err := (&PlainTextReader{}).Read(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)

	_, err = (&PlainTextReader{}).Read(context.Background(), binary)
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
}

func TestPlainTextReader_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	segs, err := (&PlainTextReader{}).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, segs)
}
