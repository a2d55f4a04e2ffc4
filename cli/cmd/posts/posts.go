package posts

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/devopsblog/blog/cli/helpers"
	"github.com/devopsblog/blog/engine/post"
	"github.com/devopsblog/blog/pkg/client"
	"github.com/devopsblog/blog/pkg/config"
)

const (
	summaryLength = 200
	titleWidth    = 48
)

// NewCommand creates the posts command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post"},
		Short:   "Manage posts on a running blog API",
	}
	cmd.AddCommand(listCmd(), getCmd(), createCmd(), updateCmd(), deleteCmd())
	return cmd
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	cfg := config.FromContext(cmd.Context())
	return client.New(&cfg.Client)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q: must be a positive integer", raw)
	}
	return id, nil
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, _ := cmd.Flags().GetInt("page")
			limit, _ := cmd.Flags().GetInt("limit")
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			result, err := c.ListPosts(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			if helpers.DetectMode(cmd) == helpers.ModeJSON {
				return helpers.PrintJSON(cmd.OutOrStdout(), result)
			}
			return printPage(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Int("page", 0, "Page number (server default when omitted)")
	cmd.Flags().Int("limit", 0, "Posts per page (server default when omitted)")
	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := c.GetPost(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printPost(cmd, p)
		},
	}
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := inputFields(cmd)
			if err != nil {
				return err
			}
			in := &post.CreateInput{
				Title:   fields["title"],
				Content: fields["content"],
				Excerpt: fields["excerpt"],
				Tags:    fields["tags"],
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := c.CreatePost(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printPost(cmd, p)
		},
	}
	addInputFlags(cmd)
	return cmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a post; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fields, err := inputFields(cmd)
			if err != nil {
				return err
			}
			in := &post.UpdateInput{
				Title:   fields["title"],
				Content: fields["content"],
				Excerpt: fields["excerpt"],
				Tags:    fields["tags"],
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			p, err := c.UpdatePost(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return printPost(cmd, p)
		},
	}
	addInputFlags(cmd)
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a post",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.DeletePost(cmd.Context(), id); err != nil {
				return err
			}
			if helpers.DetectMode(cmd) == helpers.ModeJSON {
				return helpers.PrintJSON(cmd.OutOrStdout(), map[string]any{"id": id, "deleted": true})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Post %d deleted\n", id)
			return err
		},
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Post title")
	cmd.Flags().String("content", "", "Post body")
	cmd.Flags().String("content-file", "", "Read the post body from a file (- for stdin)")
	cmd.Flags().String("excerpt", "", "Short summary; empty clears it on update")
	cmd.Flags().String("tags", "", "Comma separated tags; empty clears them on update")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

// inputFields returns a Field for every flag the user set. Unset flags are
// left out so the server reports missing required fields itself.
func inputFields(cmd *cobra.Command) (map[string]post.Field, error) {
	fields := make(map[string]post.Field)
	for _, name := range []string{"title", "content", "excerpt", "tags"} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, err
		}
		fields[name] = post.NewField(value)
	}
	if cmd.Flags().Changed("content-file") {
		path, err := cmd.Flags().GetString("content-file")
		if err != nil {
			return nil, err
		}
		body, err := readContent(cmd, path)
		if err != nil {
			return nil, err
		}
		fields["content"] = post.NewField(body)
	}
	return fields, nil
}

func readContent(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}

func printPost(cmd *cobra.Command, p *post.Post) error {
	out := cmd.OutOrStdout()
	if helpers.DetectMode(cmd) == helpers.ModeJSON {
		return helpers.PrintJSON(out, p)
	}
	fmt.Fprintf(out, "#%d %s\n", p.ID, p.Title)
	fmt.Fprintf(out, "created: %s  updated: %s\n", formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if p.Tags != nil && *p.Tags != "" {
		fmt.Fprintf(out, "tags:    %s\n", *p.Tags)
	}
	if p.Excerpt != nil && *p.Excerpt != "" {
		fmt.Fprintf(out, "\n%s\n", *p.Excerpt)
	}
	_, err := fmt.Fprintf(out, "\n%s\n", p.Content)
	return err
}

func printPage(out io.Writer, page *post.Page) error {
	if len(page.Posts) == 0 {
		_, err := fmt.Fprintln(out, "No posts found")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tSUMMARY")
	for i := range page.Posts {
		p := &page.Posts[i]
		summary := post.Summary(p.Content, summaryLength)
		if p.Excerpt != nil && *p.Excerpt != "" {
			summary = *p.Excerpt
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			p.ID,
			helpers.Truncate(p.Title, titleWidth),
			formatTime(p.CreatedAt),
			strings.ReplaceAll(summary, "\n", " "),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pg := page.Pagination
	_, err := fmt.Fprintf(out, "\npage %d of %d (%d posts)\n", pg.CurrentPage, pg.TotalPages, pg.TotalPosts)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
