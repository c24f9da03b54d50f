package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kilianp07/liftsim/config"
	"github.com/kilianp07/liftsim/infra/logger"
	"github.com/kilianp07/liftsim/pkg/export"
	"github.com/kilianp07/liftsim/qa/scenarios"
)

var (
	scenarioPath string
	exportPath   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a scenario file on a virtual clock and check its expectations",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file")
	simulateCmd.Flags().StringVar(&exportPath, "export", "", "write the trips to a .csv or .json file")
	_ = simulateCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sc, err := scenarios.Load(scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	res, err := scenarios.Run(sc, scenarios.Options{
		Layout:   cfg.Building,
		Profile:  cfg.Motion,
		Dispatch: cfg.Dispatch,
		Frame:    cfg.Scheduler.Tick(),
		Log:      logger.New("simulate"),
	})
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	if exportPath != "" {
		if err := export.WriteFile(exportPath, res.Trips); err != nil {
			return fmt.Errorf("export trips: %w", err)
		}
	}
	if err := res.Check(sc.Expected); err != nil {
		return fmt.Errorf("scenario %s failed:\n%w", sc.Name, err)
	}
	return nil
}

func printResult(w io.Writer, res *scenarios.Result) {
	fmt.Fprintf(w, "scenario %s: %d trips in %v, %d pending, at most %d moving\n",
		res.Name, len(res.Trips), res.SimTime, res.Pending, res.MaxConcurrentMoving)
	for _, id := range slices.Sorted(maps.Keys(res.FinalFloors)) {
		fmt.Fprintf(w, "  %s: floor %d, visited %v\n", id, res.FinalFloors[id], res.Visits[id])
	}
}
