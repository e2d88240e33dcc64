package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/vppsim/core/dispatch"
)

var (
	dispatchAsset  string
	dispatchTarget float64
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Submit one dispatch command and follow it to completion",
	RunE:  runDispatch,
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchAsset, "asset", dispatch.DefaultAssets[0], "asset id")
	dispatchCmd.Flags().Float64Var(&dispatchTarget, "target", 10, "target power in MW")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext(cmd)
	defer stop()

	cfg, err := loadQuiet(cmd)
	if err != nil {
		return err
	}
	ctl, err := dispatch.New(cfg.Dispatch)
	if err != nil {
		return err
	}
	defer ctl.Close()

	events := ctl.Subscribe()
	cmdInfo, err := ctl.Submit(dispatchAsset, dispatchTarget)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("dispatch %s interrupted: %w", cmdInfo.ID, ctx.Err())
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("dispatch %s: controller closed", cmdInfo.ID)
			}
			if ev.Command.ID != cmdInfo.ID {
				continue
			}
			if err := enc.Encode(ev.Command); err != nil {
				return err
			}
			if ev.Command.Status.Terminal() {
				return nil
			}
		}
	}
}
