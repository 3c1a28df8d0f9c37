package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"campus-engage/internal/intent"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze <query>",
	Short:   "Print the intent and search parameters extracted from a query",
	Example: `  campus-engage analyze "free pizza near the campus center today"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.Join(args, " ")

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query  string        `json:"query"`
			Intent intent.Intent `json:"intent"`
			Params string        `json:"params"`
		}{
			Query:  q,
			Intent: intent.Analyze(q),
			Params: intent.GenerateQueryParams(q).Encode(),
		})
	},
}
