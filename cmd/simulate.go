package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wwcp/app/plugins"
	"github.com/kilianp07/wwcp/config"
	"github.com/kilianp07/wwcp/core/model"
	"github.com/kilianp07/wwcp/core/virtual"
	"github.com/kilianp07/wwcp/infra/logger"
	"github.com/kilianp07/wwcp/infra/mqtt"
)

var (
	simDelay    time.Duration
	simFlip     time.Duration
	simExpiry   time.Duration
	simPrefix   string
	simClientID string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <pool-id>",
	Short: "Serve a configured pool as a virtual backend over MQTT",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().DurationVar(&simDelay, "delay", 0, "response delay of every command")
	simulateCmd.Flags().DurationVar(&simFlip, "flip-interval", 0, "toggle a random idle EVSE between Available and Faulted")
	simulateCmd.Flags().DurationVar(&simExpiry, "expiry-interval", 30*time.Second, "reservation expiry sweep period")
	simulateCmd.Flags().StringVar(&simPrefix, "topic-prefix", "", "topic prefix, defaults to mqtt.topic_prefix")
	simulateCmd.Flags().StringVar(&simClientID, "client-id", "", "MQTT client id")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pc, ok := cfg.Pool(args[0])
	if !ok {
		return fmt.Errorf("unknown pool %s", args[0])
	}
	logg := logger.New("simulator")
	vp, err := plugins.NewVirtualPool(pc, virtual.WithResponseDelay(simDelay), virtual.WithLogger(logg))
	if err != nil {
		return err
	}
	defer vp.Close()

	mqttCfg := cfg.MQTT
	if simClientID != "" {
		mqttCfg.ClientID = simClientID
	} else {
		mqttCfg.ClientID = fmt.Sprintf("wwcp-sim-%d", time.Now().UnixNano())
	}
	client, err := mqtt.NewClient(mqttCfg)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	prefix := simPrefix
	if prefix == "" {
		prefix = mqttCfg.TopicPrefix
	}
	resp := mqtt.NewResponder(client, vp, prefix, mqttCfg.Timeout(), logg)
	if err := resp.Start(ctx); err != nil {
		return fmt.Errorf("start responder: %w", err)
	}
	defer func() {
		if err := resp.Stop(); err != nil {
			logg.Errorf("stop responder: %v", err)
		}
	}()

	simulate(ctx, vp, simFlip, simExpiry)
	return nil
}

// simulate runs the periodic jobs of a simulated pool until ctx ends.
func simulate(ctx context.Context, vp *virtual.ChargingPool, flip, expiry time.Duration) {
	var flipC <-chan time.Time
	if flip > 0 {
		t := time.NewTicker(flip)
		defer t.Stop()
		flipC = t.C
	}
	var expiryC <-chan time.Time
	if expiry > 0 {
		t := time.NewTicker(expiry)
		defer t.Stop()
		expiryC = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-flipC:
			flipRandomEVSE(vp)
		case now := <-expiryC:
			vp.ExpireReservations(now)
		}
	}
}

// flipRandomEVSE toggles one EVSE that is neither reserved nor charging.
func flipRandomEVSE(vp *virtual.ChargingPool) {
	var idle []*virtual.EVSE
	for _, st := range vp.ChargingStations() {
		for _, e := range st.EVSEs() {
			switch e.Status() {
			case model.EVSEStatusAvailable, model.EVSEStatusFaulted:
				idle = append(idle, e)
			}
		}
	}
	if len(idle) == 0 {
		return
	}
	e := idle[rand.IntN(len(idle))]
	if e.Status() == model.EVSEStatusAvailable {
		e.SetStatus(model.EVSEStatusFaulted)
	} else {
		e.SetStatus(model.EVSEStatusAvailable)
	}
}
