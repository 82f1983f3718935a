package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ceyewan/leaseflake/idgen"
	"github.com/ceyewan/leaseflake/xerrors"
)

type decodedID struct {
	ID int64 `json:"id"`
	idgen.Parts
	Time string `json:"time"`
}

func newDecodeCmd() *cobra.Command {
	var (
		workerBits int
		epochMs    int64
	)
	cmd := &cobra.Command{
		Use:   "decode <id>",
		Short: "Split an ID into timestamp, worker number and sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 0 {
				return xerrors.Wrapf(xerrors.ErrInvalidInput, "invalid id %q", args[0])
			}
			layout, err := idgen.NewLayout(workerBits, epochMs)
			if err != nil {
				return err
			}

			parts := layout.Decode(id)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(decodedID{
				ID:    id,
				Parts: parts,
				Time:  layout.Time(parts).UTC().Format(time.RFC3339Nano),
			})
		},
	}
	cmd.Flags().IntVar(&workerBits, "worker-bits", idgen.DefaultWorkerBits, "Worker number width used when the ID was generated")
	cmd.Flags().Int64Var(&epochMs, "epoch-ms", 0, "Epoch in Unix milliseconds used when the ID was generated")
	return cmd
}
