package mimeutil_test

import (
	"testing"

	"github.com/rohmanhakim/crawlctl/internal/mimeutil"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	mt, charset := mimeutil.ParseContentType("text/html; charset=UTF-8")
	require.Equal(t, "text/html", mt)
	require.Equal(t, "utf-8", charset)
}

func TestParseContentType_NoCharset(t *testing.T) {
	mt, charset := mimeutil.ParseContentType("application/json")
	require.Equal(t, "application/json", mt)
	require.Empty(t, charset)
}

func TestParseContentType_Empty(t *testing.T) {
	mt, charset := mimeutil.ParseContentType("")
	require.Empty(t, mt)
	require.Empty(t, charset)
}

func TestIsHTML(t *testing.T) {
	require.True(t, mimeutil.IsHTML("text/html"))
	require.True(t, mimeutil.IsHTML("application/xhtml+xml"))
	require.False(t, mimeutil.IsHTML("application/json"))
	require.False(t, mimeutil.IsHTML("image/png"))
}
