package main

import (
	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/update"
	"github.com/spf13/cobra"
)

func newUpdateCmd(a *app) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "update <inspection> <patch>",
		Short: "Print the update an inspection patch produces",
		Long: `Update runs the inspection update engine on an inspection document and a
patch of items and sections, and prints the minimal update. With --apply it
prints the updated inspection instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.eligibility()
			if err != nil {
				return err
			}

			var (
				insp  propinspect.Inspection
				patch propinspect.InspectionTemplatePatch
			)
			if err := readDocument(args[0], &insp); err != nil {
				return err
			}
			if err := readDocument(args[1], &patch); err != nil {
				return err
			}

			upd, err := update.NewEngine(table).Inspection(&insp, patch, a.now())
			if err != nil {
				return err
			}
			if apply {
				return a.write(insp.Apply(upd))
			}
			return a.write(upd)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Print the updated inspection instead of the update")
	return cmd
}

func newTemplateUpdateCmd(a *app) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "template-update <template> <patch>",
		Short: "Print the update a template patch produces",
		Long: `Template-update runs the template update engine on a template document and a
patch, and prints the minimal update. With --apply it prints the updated
template instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tmpl  propinspect.Template
				patch propinspect.TemplatePatch
			)
			if err := readDocument(args[0], &tmpl); err != nil {
				return err
			}
			if err := readDocument(args[1], &patch); err != nil {
				return err
			}

			upd, err := update.NewEngine(nil).Template(&tmpl, patch, a.now())
			if err != nil {
				return err
			}
			if apply {
				return a.write(tmpl.Apply(upd))
			}
			return a.write(upd)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Print the updated template instead of the update")
	return cmd
}
