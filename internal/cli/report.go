package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"bse-portfolio/internal/report"
)

// addReportCommands adds CSV report commands.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate CSV reports",
	}
	cmd.AddCommand(newReportGenerateCmd(app))
	cmd.AddCommand(newReportRealizedCmd(app))
	rootCmd.AddCommand(cmd)
}

func newReportGenerateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write summary, holdings and trades CSVs",
		Example: `  bsepf report generate
  bsepf report generate --out /tmp/reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(2 * time.Minute)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			outDir, _ := cmd.Flags().GetString("out")
			if outDir == "" {
				outDir = app.Config.Reports.OutputDir
			}

			gen := report.NewGenerator(app.Store, outDir)
			paths, err := gen.Generate(ctx)
			if err != nil {
				output.Error("Report generation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string][]string{"files": paths})
			}
			output.Success("✓ Reports written")
			for _, path := range paths {
				output.Printf("  %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "", "output directory (default from config)")
	return cmd
}

func newReportRealizedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realized [scrip-code]",
		Short: "Write a realized P&L CSV (all instruments unless one is given)",
		Example: `  bsepf report realized
  bsepf report realized 500325`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(2 * time.Minute)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			outDir, _ := cmd.Flags().GetString("out")
			if outDir == "" {
				outDir = app.Config.Reports.OutputDir
			}
			scrip := ""
			if len(args) == 1 {
				scrip = args[0]
			}

			gen := report.NewGenerator(app.Store, outDir)
			path, err := gen.RealizedReport(ctx, scrip)
			if err != nil {
				output.Error("Report generation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"file": path})
			}
			output.Success("✓ Realized P&L report written")
			output.Printf("  %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("out", "", "output directory (default from config)")
	return cmd
}
