package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/cli/helpers"
	appconfig "github.com/devopsblog/blog/pkg/config"
)

// NewCommand creates the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(showCmd())
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
}

// Entry is one resolved configuration key.
type Entry struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appconfig.FromContext(ctx)
	entries, err := Entries(cfg, helpers.SourcesFromContext(ctx))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if helpers.DetectMode(cmd) == helpers.ModeJSON {
		return helpers.PrintJSON(out, entries)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%v\t%s\n", e.Key, formatValue(e.Value), e.Source)
	}
	return tw.Flush()
}

// Entries flattens cfg into sorted key/value pairs. Secrets are redacted and
// passwords embedded in connection strings are masked.
func Entries(cfg *appconfig.Config, sources appconfig.Service) ([]Entry, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	keys := k.Keys()
	sort.Strings(keys)
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		value := normalize(k.Get(key))
		if key == "database.conn_string" {
			if s, ok := value.(string); ok {
				value = maskURL(s)
			}
		}
		source := string(appconfig.SourceDefault)
		if sources != nil {
			source = string(sources.GetSource(key))
		}
		entries = append(entries, Entry{Key: key, Value: value, Source: source})
	}
	return entries, nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case time.Duration:
		return val.String()
	case appconfig.SensitiveString:
		return val.String()
	default:
		return v
	}
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case []string:
		return strings.Join(val, ",")
	case string:
		if val == "" {
			return "-"
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}
