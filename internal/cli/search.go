package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"newsdesk-sections/internal/sections"

	"github.com/spf13/cobra"
)

func searchCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find articles to pin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			found, err := opts.client().SearchArticles(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tPUBLISHED\tTITLE")
			for _, article := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\n", article.Key, formatTime(article.PublishedAt), article.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	return cmd
}

func planCommand(opts *options) *cobra.Command {
	var target string
	var preview bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a page renders, section by section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := parseTarget(target)
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			plan, err := opts.client().Plan(ctx, want, preview)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(plan.Sections) == 0 {
				fmt.Fprintf(out, "%s has no enabled sections\n", formatTarget(want))
				return nil
			}
			for _, entry := range plan.Sections {
				fmt.Fprintf(out, "%s [%s] %d/%d\n", entry.Section.Title, entry.Section.Template.Name, entry.Count(), entry.Section.Capacity)
				for _, item := range entry.Items {
					fmt.Fprintf(out, "  - %s\n", item.Title)
				}
				for _, name := range sections.ZoneOrder {
					items, ok := entry.Zones[name]
					if !ok {
						continue
					}
					fmt.Fprintf(out, "  %s:\n", name)
					for _, item := range items {
						fmt.Fprintf(out, "    - %s\n", item.Title)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "homepage", "Page: homepage, path:<path> or category:<slug>")
	cmd.Flags().BoolVar(&preview, "preview", false, "Bypass the plan cache")
	return cmd
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
