package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/store"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// exportLedgerLimit bounds how many XP ledger rows an export includes.
const exportLedgerLimit = 100000

// Export is the JSON document written by `lvlup export`.
type Export struct {
	ExportedAt   time.Time            `json:"exported_at"`
	User         domain.User          `json:"user"`
	Streak       domain.Streak        `json:"streak"`
	Tasks        []domain.Task        `json:"tasks"`
	Goals        []domain.Goal        `json:"goals"`
	Achievements []domain.Achievement `json:"achievements"`
	Stats        *domain.Stats        `json:"stats,omitempty"`
	XPLedger     []domain.XPEntry     `json:"xp_ledger"`
}

func newExportCmd() *cobra.Command {
	var dir, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole profile to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := buildExport(cmd.Context(), st)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = filepath.Join(dir, exportFileName(doc.User.Name, doc.ExportedAt))
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode export: %w", err)
			}
			if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s and %s to %s\n",
				plural(len(doc.Tasks), "task"), plural(len(doc.Goals), "goal"), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory for the generated file name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "exact output path (overrides --dir)")
	return cmd
}

func buildExport(ctx context.Context, st *store.Store) (Export, error) {
	u, err := st.User()
	if err != nil {
		return Export{}, err
	}
	streak, err := st.Streak()
	if err != nil {
		return Export{}, err
	}
	goals, err := st.Goals(ctx)
	if err != nil {
		return Export{}, err
	}
	stats, err := st.Stats(ctx)
	if err != nil && !domain.IsNotFound(err) {
		return Export{}, err
	}
	ledger, err := st.XPHistory(ctx, exportLedgerLimit)
	if err != nil {
		return Export{}, err
	}
	return Export{
		ExportedAt:   time.Now().UTC(),
		User:         u,
		Streak:       streak,
		Tasks:        st.Tasks(),
		Goals:        goals,
		Achievements: st.Achievements(),
		Stats:        stats,
		XPLedger:     ledger,
	}, nil
}

// exportFileName builds "<name-slug>-lvlup-<date>.json".
func exportFileName(name string, at time.Time) string {
	s := slug.Make(name)
	if s == "" {
		s = "profile"
	}
	return fmt.Sprintf("%s-lvlup-%s.json", s, calendar.FormatDate(at))
}
