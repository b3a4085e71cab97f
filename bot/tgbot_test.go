package bot

import (
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize_EscapesMarkdownV2(t *testing.T) {
	require.Equal(t, `ERROR: relay\_message failed \(500\)\.`, sanitize("ERROR: relay_message failed (500).", false))
	require.Equal(t, "plain text", sanitize("plain text", false))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("я", 20)
	out := truncate(long, 10)
	require.Equal(t, strings.Repeat("я", 10)+"…", out)
}

func TestAlertTexts_FitTelegramLimit(t *testing.T) {
	long := strings.Repeat("a.", 5000)
	markdown, plain := alertTexts(long)

	require.LessOrEqual(t, utf8.RuneCountInString(markdown), maxMessageLength)
	require.LessOrEqual(t, utf8.RuneCountInString(plain), maxMessageLength)
	require.True(t, strings.HasSuffix(plain, "…"))

	markdown, plain = alertTexts("db (down)")
	require.Equal(t, `db \(down\)`, markdown)
	require.Equal(t, "db (down)", plain)
}
