package contentstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/crawlctl/internal/contentstore"
	"github.com/stretchr/testify/require"
)

func TestContentPath_Deterministic(t *testing.T) {
	p1 := contentstore.ContentPath("https://Example.COM/Docs/Guide")
	p2 := contentstore.ContentPath("https://Example.COM/Docs/Guide")
	require.Equal(t, p1, p2)
	require.Contains(t, p1, "example-com")
	require.Contains(t, p1, "docs")
	require.Regexp(t, `guide__[0-9a-f]{8}\.html$`, p1)
}

func TestContentPath_RootPath(t *testing.T) {
	p := contentstore.ContentPath("https://example.com/")
	require.Regexp(t, `^example-com.index__[0-9a-f]{8}\.html$`, filepath.ToSlash(p))
}

func TestContentPath_UnsafeCharactersCollapsed(t *testing.T) {
	p := contentstore.ContentPath("https://example.com/a b/c?d=1")
	require.NotContains(t, p, " ")
	require.NotContains(t, p, "?")
}

func TestWrite_CreatesFileUnderDir(t *testing.T) {
	dir := t.TempDir()
	rel, err := contentstore.Write(dir, "https://example.com/a", "<html></html>")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(data))
}
