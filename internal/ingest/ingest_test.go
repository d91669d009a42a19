package ingest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDirectoryIngestsAndDeduplicates(t *testing.T) {
	st, err := state.Open(filepath.Join(t.TempDir(), "state.db"), testLogger())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	person, err := st.CreatePerson("张三", "2021010101")
	require.NoError(t, err)

	root := t.TempDir()
	pdfBytes := []byte("%PDF-1.4 invoice one")
	writeFile(t, filepath.Join(root, "a.pdf"), pdfBytes)
	writeFile(t, filepath.Join(root, "b.jpg"), []byte("jpeg payload"))
	writeFile(t, filepath.Join(root, "copy", "a-copy.pdf"), pdfBytes)
	writeFile(t, filepath.Join(root, ".archive", "secret.pdf"), pdfBytes)
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("not an invoice"))
	writeFile(t, filepath.Join(root, "empty.png"), nil)

	ing := New(st, testLogger())
	results, stats, err := ing.Directory(person.ID, root, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)

	byName := map[string]FileResult{}
	for _, res := range results {
		byName[filepath.Base(res.Path)] = res
	}
	require.Len(t, byName, 4)

	original := byName["a.pdf"]
	require.Empty(t, original.Err)
	dup := byName["a-copy.pdf"]
	assert.True(t, dup.Deduplicated)
	assert.Equal(t, original.InvoiceID, dup.InvoiceID)
	assert.Equal(t, original.HashHex, dup.HashHex)
	assert.Contains(t, byName["empty.png"].Err, "empty")

	stored, ok := st.GetPerson(person.ID)
	require.True(t, ok)
	require.Len(t, stored.Invoices, 2)

	inv, ok := st.GetInvoice(person.ID, original.InvoiceID)
	require.True(t, ok)
	assert.Equal(t, "a.pdf", inv.Filename)
	assert.Equal(t, constants.PDFContentType, inv.ContentType)
	assert.Equal(t, constants.StatusPending, inv.Status)
	assert.Equal(t, pdfBytes, inv.SourceData)
}

func TestFileRejectsUnsupportedExtension(t *testing.T) {
	st, err := state.Open(filepath.Join(t.TempDir(), "state.db"), testLogger())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	person, err := st.CreatePerson("李四", "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.docx")
	writeFile(t, path, []byte("word document"))

	res := New(st, testLogger()).File(person.ID, path)
	assert.Contains(t, res.Err, "unsupported or missing extension")

	stored, ok := st.GetPerson(person.ID)
	require.True(t, ok)
	assert.Empty(t, stored.Invoices)
}

func TestDirectoryRequiresRoot(t *testing.T) {
	st, err := state.Open(filepath.Join(t.TempDir(), "state.db"), testLogger())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	_, _, err = New(st, testLogger()).Directory(uuid.New(), "  ", true)
	assert.Error(t, err)
}
