package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"newsdesk-sections/internal/admin"
	"newsdesk-sections/internal/sections"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// document is the YAML layout written by export and read by apply.
type document struct {
	Sections []sections.Record `yaml:"sections"`
}

func applyCommand(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "apply -f <file>",
		Short: "Create or update sections from YAML",
		Long:  "Reads one section or a sections: list. Records with an id replace that section; records without one are created.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			records, err := decodeRecords(data)
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			editor := admin.NewEditor(opts.client())
			for i, record := range records {
				loaded, _ := sections.Load(record)
				form := admin.FromSection(loaded)
				form.Custom = record.Custom
				saved, err := editor.Save(ctx, form)
				if err != nil {
					return fmt.Errorf("section %d (%s): %w", i+1, record.Title, err)
				}
				verb := "updated"
				if record.ID == "" {
					verb = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, saved.ID, saved.Slug)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "YAML file, - for stdin")
	return cmd
}

func exportCommand(opts *options) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write sections as YAML accepted by apply",
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
			doc := document{Sections: make([]sections.Record, 0, len(items))}
			for _, item := range items {
				doc.Sections = append(doc.Sections, item.Record())
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Only sections of this page, e.g. category:world")
	return cmd
}

func readInput(file string, stdin io.Reader) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

// decodeRecords accepts a sections: list or a single record.
func decodeRecords(data []byte) ([]sections.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("no sections in input")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Sections) > 0 {
		return doc.Sections, nil
	}
	var record sections.Record
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	if record.Title == "" && record.Template == "" {
		return nil, fmt.Errorf("no sections in input")
	}
	return []sections.Record{record}, nil
}
