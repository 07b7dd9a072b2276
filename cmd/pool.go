package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wwcp/core/charging"
	"github.com/kilianp07/wwcp/infra/logger"
)

var (
	expandStations bool
	expandEVSEs    bool
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Charging pool related commands",
}

var poolShowCmd = &cobra.Command{
	Use:   "show [pool-id]",
	Short: "Print configured pools as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPoolShow,
}

func init() {
	poolShowCmd.Flags().BoolVar(&expandStations, "stations", false, "inline the charging stations")
	poolShowCmd.Flags().BoolVar(&expandEVSEs, "evses", false, "inline the EVSEs of inlined stations")
	poolCmd.AddCommand(poolShowCmd)
	rootCmd.AddCommand(poolCmd)
}

func runPoolShow(cmd *cobra.Command, args []string) error {
	svc, err := loadService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("pool-show").Errorf("service close: %v", err)
		}
	}()

	opt := charging.JSONOptions{ExpandStations: expandStations, ExpandEVSEs: expandEVSEs}
	var out []map[string]any
	for _, h := range svc.Pools() {
		if len(args) == 1 && h.Pool.ID().String() != args[0] {
			continue
		}
		o := h.Pool.ToJSON(opt)
		o["powerSummary"] = h.Pool.PowerSummary()
		out = append(out, o)
	}
	if len(args) == 1 && len(out) == 0 {
		return fmt.Errorf("unknown pool %s", args[0])
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
