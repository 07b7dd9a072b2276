package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/infra/logger"
)

var (
	reserveDuration time.Duration
	reserveProvider string
	reserveTimeout  time.Duration
)

var reserveCmd = &cobra.Command{
	Use:   "reserve <pool-id> [station-or-evse-id]",
	Short: "Reserve a pool, station or EVSE",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runReserve,
}

func init() {
	reserveCmd.Flags().DurationVar(&reserveDuration, "duration", charging.DefaultReservationDuration, "reservation duration")
	reserveCmd.Flags().StringVar(&reserveProvider, "provider", "", "e-mobility provider id")
	reserveCmd.Flags().DurationVar(&reserveTimeout, "timeout", 30*time.Second, "command timeout")
	rootCmd.AddCommand(reserveCmd)
}

// parseLocation resolves the optional second argument into a location
// within poolID.
func parseLocation(poolID model.ChargingPoolID, arg string) (charging.ChargingLocation, error) {
	if arg == "" {
		return charging.AtPool(poolID), nil
	}
	if id, err := model.ParseEVSEID(arg); err == nil {
		return charging.AtEVSE(id), nil
	}
	if id, err := model.ParseChargingStationID(arg); err == nil {
		return charging.AtStation(id), nil
	}
	return charging.ChargingLocation{}, fmt.Errorf("%q is neither a station nor an EVSE id", arg)
}

func runReserve(cmd *cobra.Command, args []string) error {
	svc, err := loadService()
	if err != nil {
		return err
	}
	logg := logger.New("reserve-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	h, ok := svc.Pool(args[0])
	if !ok {
		return fmt.Errorf("unknown pool %s", args[0])
	}
	var arg string
	if len(args) == 2 {
		arg = args[1]
	}
	loc, err := parseLocation(h.Pool.ID(), arg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), reserveTimeout)
	defer cancel()
	res := h.Pool.Reserve(ctx, charging.ReserveRequest{
		Location:   loc,
		Duration:   reserveDuration,
		ProviderID: model.ProviderID(reserveProvider),
	})
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("reservation failed: %s", res.Type)
	}
	return nil
}
