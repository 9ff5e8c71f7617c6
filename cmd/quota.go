package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/quota"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show per-provider API quota usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, tracker, err := initTracker(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		statuses, persistFailures := tracker.Status()
		formatQuotaStatus(os.Stdout, statuses, persistFailures)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

// formatQuotaStatus writes a provider usage table to out, sorted by name.
func formatQuotaStatus(out io.Writer, statuses map[string]quota.ProviderStatus, persistFailures int) {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVIDER\tUSED\tLIMIT\tREMAINING\tWINDOW\tLAST_RESET")
	_, _ = fmt.Fprintln(w, "--------\t----\t-----\t---------\t------\t----------")
	for _, name := range names {
		s := statuses[name]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
			s.Provider, s.Used, s.Limit, s.Remaining, s.Window, s.LastReset)
	}
	_ = w.Flush()

	if persistFailures > 0 {
		fmt.Fprintf(out, "\nWARNING: %d quota persist failures this session; counts may reset on restart\n", persistFailures)
	}
}
