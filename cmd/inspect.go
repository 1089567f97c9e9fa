package cmd

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"settler/config"
	"settler/db"
	"settler/digest"
	"settler/directory"
	"settler/store"
	"settler/types"
	"settler/utils"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the directory records and conservation metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadEngineConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		provider, err := store.CreateProvider(&cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer provider.Close()

		iter, ok := provider.(db.IterableProvider)
		if !ok {
			return fmt.Errorf("store type %s does not support iteration", cfg.Store.Type)
		}

		count := 0
		err = iter.IteratePrefix([]byte(directory.PrefixRecord), func(key, value []byte) bool {
			name := key[len(directory.PrefixRecord):]
			rec, err := directory.Decode(value)
			if err != nil {
				fmt.Printf("%s  <corrupt: %v>\n", hex.EncodeToString(name), err)
			} else {
				fmt.Printf("%s  %s\n", hex.EncodeToString(name), directory.Summary(rec))
			}
			count++
			return true
		})
		if err != nil {
			return err
		}
		fmt.Printf("%d record(s)\n", count)

		return iter.IteratePrefix([]byte(store.PrefixConservation), func(key, value []byte) bool {
			meta := key[len(store.PrefixConservation):]
			if len(meta) != 24 || len(value) != 2*digest.Size {
				fmt.Printf("conservation  <corrupt record>\n")
				return true
			}
			var in, out [digest.Size]byte
			copy(in[:], value[:digest.Size])
			copy(out[:], value[digest.Size:])
			fmt.Printf("conservation (%d, %d, %d)  input=%s output=%s\n",
				binary.BigEndian.Uint64(meta),
				binary.BigEndian.Uint64(meta[8:]),
				binary.BigEndian.Uint64(meta[16:]),
				utils.Uint256ToString(digest.Decode(in)),
				utils.Uint256ToString(digest.Decode(out)))
			return true
		})
	},
}

var (
	balanceOwner string
	balanceType  string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the accumulated balance for an owner and type",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, provider, err := openEngine(configPath)
		if err != nil {
			return err
		}
		defer provider.Close()

		owner, err := types.AddressFromHex(balanceOwner)
		if err != nil {
			return err
		}
		value, err := engine.Balance(balanceType, owner)
		if err != nil {
			return err
		}
		if value == nil {
			fmt.Println("no accumulator")
			return nil
		}
		fmt.Println(utils.Uint256ToString(value))
		return nil
	},
}

var streamID string

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Show the event stream head for a stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, provider, err := openEngine(configPath)
		if err != nil {
			return err
		}
		defer provider.Close()

		id, err := types.AddressFromHex(streamID)
		if err != nil {
			return err
		}
		head, err := engine.StreamHead(id)
		if err != nil {
			return err
		}
		if head == nil {
			fmt.Println("no stream head")
			return nil
		}
		root, err := engine.StreamRoot(id)
		if err != nil {
			return err
		}
		fmt.Printf("version=%d checkpoint_seq=%d num_events=%d root=%s\n",
			head.Version, head.CheckpointSeq, head.NumEvents, utils.Uint256ToHex(root))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceOwner, "owner", "", "owner address (hex)")
	balanceCmd.Flags().StringVar(&balanceType, "type", "", "balance type tag")
	balanceCmd.MarkFlagRequired("owner")
	balanceCmd.MarkFlagRequired("type")

	streamCmd.Flags().StringVar(&streamID, "stream", "", "stream address (hex)")
	streamCmd.MarkFlagRequired("stream")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(streamCmd)
}
