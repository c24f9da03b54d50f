package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/liftsim/core/elevator"
)

var (
	apiURL     string
	onlyMoving bool
)

var carsCmd = &cobra.Command{
	Use:   "cars",
	Short: "Car related commands",
}

var carsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the cars of a running simulation",
	RunE:  runCarsLs,
}

func init() {
	carsLsCmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the HTTP API")
	carsLsCmd.Flags().BoolVar(&onlyMoving, "moving", false, "only list moving cars")
	addAuthFlags(carsCmd)
	carsCmd.AddCommand(carsLsCmd)
	rootCmd.AddCommand(carsCmd)
}

func runCarsLs(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	client, err := apiClient(ctx)
	if err != nil {
		return err
	}
	cars, err := fetchCars(ctx, client, apiURL, onlyMoving)
	if err != nil {
		return err
	}
	return printCars(cmd.OutOrStdout(), cars)
}

func fetchCars(ctx context.Context, client *http.Client, base string, moving bool) ([]elevator.CarStatus, error) {
	u := strings.TrimRight(base, "/") + "/api/cars"
	if moving {
		u += "?" + url.Values{"moving": {"true"}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list cars: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var cars []elevator.CarStatus
	if err := json.NewDecoder(resp.Body).Decode(&cars); err != nil {
		return nil, fmt.Errorf("decode cars: %w", err)
	}
	return cars, nil
}

func printCars(w io.Writer, cars []elevator.CarStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tFLOOR\tPOSITION\tDIRECTION\tSTOPS")
	for _, c := range cars {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%v\n", c.ID, c.State, c.CurrentFloor, c.VisualFloor, c.Direction, c.Stops)
	}
	return tw.Flush()
}
