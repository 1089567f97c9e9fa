package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"settler/config"
	"settler/logx"
	"settler/types"
	"settler/utils"
)

var batchPath string

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Replay a settlement batch file through the engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, system, provider, err := openEngine(configPath)
		if err != nil {
			return err
		}
		defer provider.Close()

		batchCfg, err := config.LoadBatchConfig(batchPath)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}

		inputTotal, err := utils.Uint256FromString(batchCfg.InputTotal)
		if err != nil {
			return err
		}
		outputTotal, err := utils.Uint256FromString(batchCfg.OutputTotal)
		if err != nil {
			return err
		}

		batch := &types.SettlementBatch{
			Epoch:            batchCfg.Epoch,
			CheckpointHeight: batchCfg.CheckpointHeight,
			Idx:              batchCfg.Idx,
			InputTotal:       inputTotal,
			OutputTotal:      outputTotal,
		}
		if err := engine.Prologue(system, batch); err != nil {
			return fmt.Errorf("prologue: %w", err)
		}

		for i, b := range batchCfg.Balances {
			owner, err := types.AddressFromHex(b.Owner)
			if err != nil {
				return fmt.Errorf("balance %d: %w", i, err)
			}
			merge, err := utils.Uint256FromString(b.Merge)
			if err != nil {
				return fmt.Errorf("balance %d: %w", i, err)
			}
			split, err := utils.Uint256FromString(b.Split)
			if err != nil {
				return fmt.Errorf("balance %d: %w", i, err)
			}
			if err := engine.SettleBalance(system, b.Type, owner, merge, split); err != nil {
				return fmt.Errorf("balance %d: %w", i, err)
			}
		}

		for i, s := range batchCfg.Streams {
			streamID, err := types.AddressFromHex(s.Stream)
			if err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			root, err := utils.Uint256FromHex(s.Root)
			if err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
			if err := engine.SettleEvents(system, streamID, root, s.EventCount, s.CheckpointSeq); err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
		}

		logx.Info("CMD", fmt.Sprintf("Settled batch (%d, %d, %d): %d balances, %d streams",
			batch.Epoch, batch.CheckpointHeight, batch.Idx, len(batchCfg.Balances), len(batchCfg.Streams)))
		fmt.Printf("settled %d balance(s), %d stream(s)\n", len(batchCfg.Balances), len(batchCfg.Streams))
		return nil
	},
}

func init() {
	settleCmd.Flags().StringVar(&batchPath, "batch", "", "path to settlement batch file")
	settleCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(settleCmd)
}
