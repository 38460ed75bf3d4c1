package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aretw0/docmerge"
	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/observability"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate --policy <file> <template>...",
	Short: "Merge a policy into one or more form templates",
	Long: `Merges the policy snapshot into each template and exports the results.

A template argument is a YAML template file, optionally prefixed with the form
ID and quantity order it renders: "CG2010:2=templates/cg2010.yaml". Without a
prefix the template's name is used as the form ID.

Per-form results are printed as JSON on stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		policyPath, _ := cmd.Flags().GetString("policy")
		policy, err := file.LoadPolicy(policyPath)
		if err != nil {
			return err
		}

		forms := make([]docmerge.Form, 0, len(args))
		for _, arg := range args {
			f, err := loadForm(arg)
			if err != nil {
				return err
			}
			forms = append(forms, f)
		}

		opts := []docmerge.Option{docmerge.WithMergeHooks(observability.LoggingHooks(a.logger))}
		if cmd.Flags().Changed("specimen") {
			on, _ := cmd.Flags().GetBool("specimen")
			opts = append(opts, docmerge.WithSpecimen(on))
		}
		eng, err := a.engine(opts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results, genErr := eng.Generate(ctx, policy, forms...)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		if genErr != nil {
			return genErr
		}

		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			if failed := failedForms(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d forms failed: %s", len(failed), len(results), strings.Join(failed, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("policy", "p", "", "Policy snapshot (JSON or YAML)")
	generateCmd.Flags().Bool("specimen", false, "Stamp SPECIMEN on bound forms (overrides config)")
	generateCmd.Flags().Bool("strict", false, "Exit non-zero when any form failed")
	_ = generateCmd.MarkFlagRequired("policy")
}

// formRef is a parsed template argument.
type formRef struct {
	ID            string
	QuantityOrder int
	Path          string
}

func parseFormArg(arg string) (formRef, error) {
	prefix, path, ok := strings.Cut(arg, "=")
	if !ok {
		return formRef{Path: arg}, nil
	}
	if path == "" {
		return formRef{}, fmt.Errorf("template argument %q has no path", arg)
	}
	ref := formRef{Path: path}
	id, qty, hasQty := strings.Cut(prefix, ":")
	ref.ID = strings.TrimSpace(id)
	if ref.ID == "" {
		return formRef{}, fmt.Errorf("template argument %q has an empty form id", arg)
	}
	if hasQty {
		n, err := strconv.Atoi(qty)
		if err != nil || n < 1 {
			return formRef{}, fmt.Errorf("template argument %q: quantity order must be a positive number", arg)
		}
		ref.QuantityOrder = n
	}
	return ref, nil
}

func loadForm(arg string) (docmerge.Form, error) {
	ref, err := parseFormArg(arg)
	if err != nil {
		return docmerge.Form{}, err
	}
	tpl, err := file.LoadTemplate(ref.Path)
	if err != nil {
		return docmerge.Form{}, err
	}
	if ref.ID == "" {
		ref.ID = tpl.Name()
	}
	return docmerge.Form{ID: ref.ID, QuantityOrder: ref.QuantityOrder, Template: tpl}, nil
}

func failedForms(results []domain.FormResult) []string {
	var out []string
	for _, r := range results {
		if r.Failed() {
			out = append(out, r.FormID)
		}
	}
	return out
}
