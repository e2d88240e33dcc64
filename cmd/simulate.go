package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/vppsim/core/alerts"
	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/core/simulation"
	"github.com/kilianp07/vppsim/core/store"
)

var (
	simTicks int
	simSeed  int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the simulation headless and print one JSON line per tick",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVarP(&simTicks, "ticks", "n", 10, "number of simulation ticks")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed; 0 keeps the configured seed")
	rootCmd.AddCommand(simulateCmd)
}

// TickRecord is one line of simulate output.
type TickRecord struct {
	Tick     int            `json:"tick"`
	Time     time.Time      `json:"time"`
	Snapshot model.Snapshot `json:"snapshot"`
	Alert    *model.Alert   `json:"alert,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadQuiet(cmd)
	if err != nil {
		return err
	}
	seed := cfg.Simulation.Seed
	if simSeed != 0 {
		seed = simSeed
	}
	r := fluctuate.NewRand(seed)
	st := store.New()
	defer st.Close()
	sim := simulation.New(cfg.Simulation, st, r)
	gen, err := alerts.New(cfg.Alerts, st, nil, r)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	start := time.Now()
	alertEvery := int(cfg.Alerts.Interval() / cfg.Simulation.Interval())
	if alertEvery < 1 {
		alertEvery = 1
	}
	for i := 1; i <= simTicks; i++ {
		now := start.Add(time.Duration(i) * cfg.Simulation.Interval())
		rec := TickRecord{Tick: i, Time: now, Snapshot: sim.Tick()}
		if i%alertEvery == 0 {
			if a, ok := gen.Tick(now); ok {
				rec.Alert = &a
			}
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
