package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Mode selects how command results are printed.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// FormatFlag is the persistent flag selecting the output mode.
const FormatFlag = "format"

// DetectMode reads the --format flag, defaulting to text.
func DetectMode(cmd *cobra.Command) Mode {
	if cmd == nil {
		return ModeText
	}
	value, err := cmd.Flags().GetString(FormatFlag)
	if err != nil {
		return ModeText
	}
	if strings.EqualFold(strings.TrimSpace(value), string(ModeJSON)) {
		return ModeJSON
	}
	return ModeText
}

// ValidateMode rejects unknown --format values.
func ValidateMode(value string) error {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeText, ModeJSON, "":
		return nil
	default:
		return fmt.Errorf("invalid --format %q: must be one of [text json]", value)
	}
}

// PrintJSON writes v as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Truncate shortens s to maxLength runes, marking the cut with "...".
func Truncate(s string, maxLength int) string {
	runes := []rune(s)
	if maxLength <= 3 || len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength-3]) + "..."
}
