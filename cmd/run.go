package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/brief"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var (
	runVertical string
	runRegion   string
	runBrief    string
	runMax      int
	runXLSX     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full lead generation pipeline",
	Long:  "Discovers businesses for a vertical and region, scores them, enriches the top tiers, and exports a ranked lead list. Target either with --vertical/--region or let --brief derive them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		vertical, region := runVertical, runRegion
		if runBrief != "" {
			if env.Anthropic == nil {
				return eris.New("run: --brief requires an anthropic key")
			}
			gen := brief.NewGenerator(env.Anthropic, env.Tracker, cfg.Anthropic.Model)
			strategy, err := gen.Generate(ctx, runBrief)
			if err != nil {
				return eris.Wrap(err, "run: derive strategy from brief")
			}
			vertical, region = strategy.Vertical, strategy.Region
			zap.L().Info("strategy derived from brief",
				zap.String("vertical", vertical),
				zap.String("region", region),
				zap.Strings("search_terms", strategy.SearchTerms),
			)
		}
		if vertical == "" || region == "" {
			return eris.New("run: --vertical and --region are required unless --brief is given")
		}

		run, err := env.Pipeline.Run(ctx, pipeline.Params{
			Vertical:   vertical,
			Region:     region,
			MaxResults: runMax,
			WriteXLSX:  runXLSX || cfg.Export.Format == "xlsx",
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run.Result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runVertical, "vertical", "", "business vertical to target, e.g. \"HVAC contractor\"")
	runCmd.Flags().StringVar(&runRegion, "region", "", "region to search, e.g. \"Springfield, IL\"")
	runCmd.Flags().StringVar(&runBrief, "brief", "", "free-text campaign brief; derives vertical and region")
	runCmd.Flags().IntVar(&runMax, "max", 50, "maximum leads to export")
	runCmd.Flags().BoolVar(&runXLSX, "xlsx", false, "also write an XLSX workbook")
	rootCmd.AddCommand(runCmd)
}
