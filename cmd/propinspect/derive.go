package main

import (
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/deficiency"
	"github.com/dukerupert/propinspect/mock"
	"github.com/spf13/cobra"
)

// deriveOutput is what a deficiency dry run prints.
type deriveOutput struct {
	Result       *deficiency.Result        `json:"result"`
	Deficiencies []*propinspect.Deficiency `json:"deficiencies"`
	Archived     []*propinspect.Deficiency `json:"archived"`
}

func newDeriveCmd(a *app) *cobra.Command {
	var existing, archived string
	cmd := &cobra.Command{
		Use:   "derive <before> <after>",
		Short: "Dry-run deficiency derivation between two inspection snapshots",
		Long: `Derive compares two snapshots of an inspection and prints which deficiencies
would be created, unarchived, updated or archived, along with the resulting
records. Pass "none" as <before> for a new inspection or as <after> for a
deleted one. Existing records can be seeded with --existing and --archived.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.eligibility()
			if err != nil {
				return err
			}

			before, err := readOptionalInspection(args[0])
			if err != nil {
				return err
			}
			after, err := readOptionalInspection(args[1])
			if err != nil {
				return err
			}

			active, err := seededStore(existing)
			if err != nil {
				return err
			}
			archive, err := seededStore(archived)
			if err != nil {
				return err
			}

			deriver := deficiency.NewDeriver(active, archive, table)
			now := time.Unix(a.now(), 0)
			deriver.Now = func() time.Time { return now }

			result, err := deriver.Sync(cmd.Context(), before, after)
			if err != nil {
				return err
			}

			return a.write(deriveOutput{
				Result:       result,
				Deficiencies: active.All(),
				Archived:     archive.All(),
			})
		},
	}
	cmd.Flags().StringVar(&existing, "existing", "", "JSON or YAML list of active deficiencies")
	cmd.Flags().StringVar(&archived, "archived", "", "JSON or YAML list of archived deficiencies")
	return cmd
}

// seededStore returns an in-memory store holding the records listed in
// path, or an empty store when path is empty.
func seededStore(path string) (*mock.DeficiencyStore, error) {
	if path == "" {
		return mock.NewDeficiencyStore(), nil
	}
	var records []*propinspect.Deficiency
	if err := readDocument(path, &records); err != nil {
		return nil, err
	}
	return mock.NewDeficiencyStore(records...), nil
}
