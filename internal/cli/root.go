// Package cli is the sectionctl command tree: section editing against the
// sections REST API from a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"newsdesk-sections/internal/admin"
	"newsdesk-sections/internal/sections"

	"github.com/spf13/cobra"
)

const defaultAPI = "http://localhost:8080"

type options struct {
	api     string
	timeout time.Duration
	in      *bufio.Reader
}

// NewRootCommand builds sectionctl. Prompts read from in.
func NewRootCommand(in io.Reader) *cobra.Command {
	opts := &options{in: bufio.NewReader(in)}
	api := os.Getenv("SECTIONS_API_URL")
	if api == "" {
		api = defaultAPI
	}

	root := &cobra.Command{
		Use:           "sectionctl",
		Short:         "Edit page sections through the sections API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.api, "api", api, "Sections API base URL (env SECTIONS_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Per-command timeout")

	root.AddCommand(
		listCommand(opts),
		showCommand(opts),
		createCommand(opts),
		applyCommand(opts),
		exportCommand(opts),
		toggleCommand(opts),
		moveCommand(opts),
		deleteCommand(opts),
		pinsCommand(opts),
		searchCommand(opts),
		planCommand(opts),
	)
	return root
}

func (o *options) client() *admin.Client {
	return admin.NewClient(o.api, nil)
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// editor returns an editor with the current listing loaded.
func (o *options) editor(ctx context.Context) (*admin.Editor, error) {
	editor := admin.NewEditor(o.client())
	if err := editor.Load(ctx); err != nil {
		return nil, err
	}
	return editor, nil
}

func (o *options) confirm(out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := o.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// find matches a section by id or slug.
func find(items []sections.Section, ref string) (sections.Section, error) {
	for _, item := range items {
		if item.ID == ref {
			return item, nil
		}
	}
	for _, item := range items {
		if item.Slug != "" && item.Slug == ref {
			return item, nil
		}
	}
	return sections.Section{}, fmt.Errorf("no section %q", ref)
}

// parseTarget reads "homepage", "category:world" or "path:/news/local".
func parseTarget(raw string) (sections.Target, error) {
	kindText, value, _ := strings.Cut(strings.TrimSpace(raw), ":")
	kind, ok := sections.ParseTargetType(kindText)
	if !ok {
		return sections.Target{}, fmt.Errorf("target must be homepage, path:<value> or category:<value>, got %q", raw)
	}
	value = strings.TrimSpace(value)
	if kind != sections.TargetHomepage && value == "" {
		return sections.Target{}, fmt.Errorf("target %s needs a value", kind)
	}
	if kind == sections.TargetHomepage {
		value = ""
	}
	return sections.Target{Type: kind, Value: value}, nil
}

func formatTarget(t sections.Target) string {
	if t.Type == sections.TargetHomepage {
		return string(t.Type)
	}
	return t.Key()
}
