package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	discoverVertical string
	discoverRegion   string
	discoverMax      int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and deduplicate leads without scoring or export",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Aggregator.Discover(ctx, discovery.Query{
			Vertical:   discoverVertical,
			Region:     discoverRegion,
			MaxResults: discoverMax,
		})

		if len(result.Leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		formatLeadsTable(os.Stdout, result.Leads)
		fmt.Fprintf(os.Stderr, "\n%d leads, %d duplicates removed\n", len(result.Leads), result.Duplicates)
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverVertical, "vertical", "", "business vertical to target (required)")
	discoverCmd.Flags().StringVar(&discoverRegion, "region", "", "region to search (required)")
	discoverCmd.Flags().IntVar(&discoverMax, "max", 50, "maximum leads to return")
	_ = discoverCmd.MarkFlagRequired("vertical")
	_ = discoverCmd.MarkFlagRequired("region")
	rootCmd.AddCommand(discoverCmd)
}

// formatLeadsTable writes a compact table of discovered leads to out.
func formatLeadsTable(out io.Writer, leads []*model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCITY\tPHONE\tWEBSITE\tSOURCE")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t-------\t------")

	for _, l := range leads {
		name := l.BusinessName
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		website := l.Website
		if len(website) > 40 {
			website = website[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			name, l.City, l.Phone, website, l.DiscoveryMethod)
	}
	_ = w.Flush()
}
