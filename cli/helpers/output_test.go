package helpers

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMode(t *testing.T) {
	t.Run("Should default to text", func(t *testing.T) {
		assert.Equal(t, ModeText, DetectMode(&cobra.Command{}))
		assert.Equal(t, ModeText, DetectMode(nil))
	})

	t.Run("Should read the format flag", func(t *testing.T) {
		cmd := &cobra.Command{}
		cmd.Flags().String(FormatFlag, "text", "")
		require.NoError(t, cmd.Flags().Set(FormatFlag, "JSON"))
		assert.Equal(t, ModeJSON, DetectMode(cmd))
	})
}

func TestValidateMode(t *testing.T) {
	t.Run("Should accept known formats", func(t *testing.T) {
		assert.NoError(t, ValidateMode("json"))
		assert.NoError(t, ValidateMode("text"))
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		assert.ErrorContains(t, ValidateMode("yaml"), "invalid --format")
	})
}

func TestPrintJSON(t *testing.T) {
	t.Run("Should not escape HTML entities", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintJSON(&buf, map[string]string{"title": "a &amp; b"}))
		assert.Contains(t, buf.String(), `"a &amp; b"`)
	})
}

func TestTruncate(t *testing.T) {
	t.Run("Should keep short strings", func(t *testing.T) {
		assert.Equal(t, "short", Truncate("short", 10))
	})

	t.Run("Should cut long strings on rune boundaries", func(t *testing.T) {
		assert.Equal(t, "héllo...", Truncate("héllo wörld", 8))
	})
}
