package main

import (
	"fmt"

	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/aretw0/docmerge/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <template>...",
	Short: "Check template placeholders against the directive vocabulary",
	Long: `Parses every placeholder identifier of each template, after applying the
configured field maps, and reports malformed modifiers, unknown directives,
missing arguments and list directives placed outside a table row.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		fields := file.NewFieldMapSource(a.cfg.Data.FieldMaps)
		out := cmd.OutOrStdout()

		invalid := 0
		for _, arg := range args {
			form, err := loadForm(arg)
			if err != nil {
				return err
			}
			defaults, err := fields.DefaultFields(cmd.Context())
			if err != nil {
				return err
			}
			custom, err := fields.CustomFields(cmd.Context(), form.ID)
			if err != nil {
				return err
			}
			fm := defaults.Overlay(custom)

			issues := validator.Lint(form.Template, fm)
			for _, i := range issues {
				fmt.Fprintf(out, "%s: %s\n", form.ID, i)
			}
			if err := validator.ValidateTemplate(form.Template, fm); err != nil {
				invalid++
				continue
			}
			fmt.Fprintf(out, "%s: template is valid (%d warnings)\n", form.ID, len(issues))
		}
		if invalid > 0 {
			return fmt.Errorf("validation failed for %d of %d templates", invalid, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
