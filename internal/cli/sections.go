package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"newsdesk-sections/internal/admin"
	"newsdesk-sections/internal/sections"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func listCommand(opts *options) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sections in placement order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			editor, err := opts.editor(ctx)
			if err != nil {
				return err
			}
			items := editor.Sections()
			if target != "" {
				want, err := parseTarget(target)
				if err != nil {
					return err
				}
				items = filterTarget(items, want)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPOS\tON\tTEMPLATE\tTARGET\tTITLE")
			for _, s := range items {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", s.ID, s.PlacementIndex, onOff(s.Enabled), s.Template.Name, formatTarget(s.Target), s.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Only sections of this page, e.g. category:world")
	return cmd
}

func showCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Print a section as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			editor, err := opts.editor(ctx)
			if err != nil {
				return err
			}
			section, err := find(editor.Sections(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(section.Feed.Categories) > 0 {
				fmt.Fprintf(out, "# categories: %s\n", sections.JoinList(section.Feed.Categories))
			}
			if len(section.Feed.Tags) > 0 {
				fmt.Fprintf(out, "# tags: %s\n", sections.JoinList(section.Feed.Tags))
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(section.Record())
		},
	}
}

func createCommand(opts *options) *cobra.Command {
	form := admin.NewForm()
	var target, categories, tags, mode, sortBy, side string
	var disabled bool
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseTarget(target)
			if err != nil {
				return err
			}
			form.Title = args[0]
			form.Target = parsed
			form.SetTemplate(form.Template)
			form.Side = side
			form.SetCategories(categories)
			form.SetTags(tags)
			form.Mode = sections.FeedMode(strings.ToLower(mode))
			form.SortBy = sections.SortBy(sortBy)
			form.Enabled = !disabled

			ctx, cancel := opts.context(cmd)
			defer cancel()
			saved, err := admin.NewEditor(opts.client()).Save(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", saved.ID, saved.Slug)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&form.Template, "template", form.Template, "Template name, e.g. main_v2")
	flags.IntVar(&form.Capacity, "capacity", form.Capacity, "Number of articles")
	flags.StringVar(&target, "target", "homepage", "Page: homepage, path:<path> or category:<slug>")
	flags.StringVar(&form.Slug, "slug", "", "Slug, derived from the title when empty")
	flags.StringVar(&mode, "mode", string(sections.ModeAuto), "Feed mode: auto, manual or mixed")
	flags.StringVar(&sortBy, "sort", string(sections.SortPublishedAt), "Sort order: publishedAt or priority")
	flags.StringVar(&categories, "categories", "", "Comma separated categories")
	flags.StringVar(&tags, "tags", "", "Comma separated tags")
	flags.IntVar(&form.TimeWindow, "window-hours", 0, "Only articles from the last N hours")
	flags.IntVar(&form.PlacementIndex, "index", 0, "Placement index")
	flags.StringVar(&side, "side", "", "Rail column: left or right")
	flags.BoolVar(&disabled, "disabled", false, "Create the section disabled")
	return cmd
}

func toggleCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|slug>",
		Short: "Enable or disable a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			editor, err := opts.editor(ctx)
			if err != nil {
				return err
			}
			section, err := find(editor.Sections(), args[0])
			if err != nil {
				return err
			}
			updated, err := editor.Toggle(ctx, section.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Title, onOff(updated.Enabled))
			return nil
		},
	}
}

func moveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "move <id|slug> <up|down>",
		Short:     "Swap a section with its neighbour",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var delta int
			switch strings.ToLower(args[1]) {
			case "up":
				delta = -1
			case "down":
				delta = 1
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[1])
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			editor, err := opts.editor(ctx)
			if err != nil {
				return err
			}
			section, err := find(editor.Sections(), args[0])
			if err != nil {
				return err
			}
			err = editor.Move(ctx, section.ID, delta)
			var partial *admin.PartialReorderError
			if errors.As(err, &partial) {
				fmt.Fprintln(cmd.ErrOrStderr(), "reorder half applied, listing reloaded")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s %s\n", section.Title, strings.ToLower(args[1]))
			return nil
		},
	}
}

func deleteCommand(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id|slug>",
		Short: "Delete a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			editor, err := opts.editor(ctx)
			if err != nil {
				return err
			}
			section, err := find(editor.Sections(), args[0])
			if err != nil {
				return err
			}
			err = editor.Delete(ctx, section.ID, func(s sections.Section) bool {
				return yes || opts.confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete section %q?", s.Title))
			})
			if errors.Is(err, admin.ErrNotConfirmed) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", section.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func filterTarget(items []sections.Section, target sections.Target) []sections.Section {
	out := []sections.Section{}
	for _, item := range items {
		if item.Target == target {
			out = append(out, item)
		}
	}
	return out
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
