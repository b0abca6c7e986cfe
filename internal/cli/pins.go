package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"newsdesk-sections/internal/admin"
	"newsdesk-sections/internal/sections"

	"github.com/spf13/cobra"
)

func pinsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Show and edit the pinned articles of a section",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <id|slug>",
			Short: "List pins in order",
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
				printPins(cmd, section.Pins)
				return nil
			},
		},
		pinEditCommand(opts, "add <id|slug> <articleId>", "Append a pin", func(form *admin.Form, arg string) error {
			form.AddPin(sections.Pin{ArticleID: arg})
			return nil
		}),
		pinEditCommand(opts, "up <id|slug> <position>", "Move a pin one place up", indexed(func(form *admin.Form, i int) { form.MovePinUp(i) })),
		pinEditCommand(opts, "down <id|slug> <position>", "Move a pin one place down", indexed(func(form *admin.Form, i int) { form.MovePinDown(i) })),
		pinEditCommand(opts, "rm <id|slug> <position>", "Remove a pin", indexed(func(form *admin.Form, i int) { form.RemovePin(i) })),
	)
	return cmd
}

// pinEditCommand loads the section into a form, applies edit and saves the
// whole section back.
func pinEditCommand(opts *options, use, short string, edit func(*admin.Form, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
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
			form := admin.FromSection(section)
			if err := edit(&form, args[1]); err != nil {
				return err
			}
			saved, err := editor.Save(ctx, form)
			if err != nil {
				return err
			}
			printPins(cmd, saved.Pins)
			return nil
		},
	}
}

// indexed adapts a pin operation taking a 1-based position from the command line.
func indexed(op func(*admin.Form, int)) func(*admin.Form, string) error {
	return func(form *admin.Form, arg string) error {
		position, err := strconv.Atoi(arg)
		if err != nil || position < 1 || position > len(form.Pins) {
			return fmt.Errorf("position must be between 1 and %d", len(form.Pins))
		}
		op(form, position-1)
		return nil
	}
}

func printPins(cmd *cobra.Command, pins []sections.Pin) {
	if len(pins) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no pins")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tARTICLE\tSTART\tEND")
	for i, pin := range pins {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, pin.ArticleID, formatTime(pin.StartAt), formatTime(pin.EndAt))
	}
	_ = w.Flush()
}
