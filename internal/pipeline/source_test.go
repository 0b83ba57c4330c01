package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestSortPageNames(t *testing.T) {
	names := []string{"page_10.png", "cover.png", "page_2.png", "page_1.jpg", "appendix.png", "page_9.png", "scan-003.tif"}
	SortPageNames(names)
	assert.Equal(t, []string{
		"page_1.jpg", "page_2.png", "scan-003.tif", "page_9.png", "page_10.png", "appendix.png", "cover.png",
	}, names)
}

func TestImageFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"page_10.png", "page_2.png", "page_1.png", "notes.txt", "cover.png"} {
		touch(t, filepath.Join(dir, n))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "page_3.png"), 0o755))

	pages, err := ImageFiles{dir}.Pages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PageSource{
		{Number: 1, Path: filepath.Join(dir, "page_1.png")},
		{Number: 2, Path: filepath.Join(dir, "page_2.png")},
		{Number: 3, Path: filepath.Join(dir, "page_10.png")},
		{Number: 4, Path: filepath.Join(dir, "cover.png")},
	}, pages)
}

func TestImageFiles_FilesKeepArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	b := filepath.Join(dir, "b.png")
	a := filepath.Join(dir, "a.jpg")
	touch(t, b)
	touch(t, a)

	pages, err := ImageFiles{b, a}.Pages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PageSource{{Number: 1, Path: b}, {Number: 2, Path: a}}, pages)
}

func TestImageFiles_UnreadableArgumentsArePages(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	touch(t, txt)
	missing := filepath.Join(dir, "page_2.png")

	pages, err := ImageFiles{txt, missing}.Pages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PageSource{{Number: 1, Path: txt}, {Number: 2, Path: missing}}, pages)
}

func TestImageFiles_NoPages(t *testing.T) {
	_, err := ImageFiles{t.TempDir()}.Pages(context.Background())
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = ImageFiles(nil).Pages(context.Background())
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestImageFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ImageFiles{t.TempDir()}.Pages(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
