package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ceyewan/leaseflake/internal/bootstrap"
	"github.com/ceyewan/leaseflake/lease"
	"github.com/ceyewan/leaseflake/xerrors"
)

func newReleaseCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "release <namespace> <worker>",
		Short: "Delete the lease key of a retired worker number",
		Long: "Delete the lease key of a retired worker number so it can be leased again " +
			"before its TTL expires. Only release numbers no running process uses.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := args[0]
			worker, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return xerrors.Wrapf(xerrors.ErrInvalidInput, "invalid worker number %q", args[1])
			}

			ctx := cmd.Context()
			cfg, _, err := flags.load(ctx)
			if err != nil {
				return err
			}
			infra, err := bootstrap.NewInfra(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = infra.Close(context.Background()) }()

			mgr, err := lease.NewManager(namespace, infra.Store, infra.LeaseConfig(), lease.WithLogger(infra.Logger))
			if err != nil {
				return err
			}
			defer mgr.Stop()

			deleted, err := mgr.Release(ctx, worker)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "released %s\n", mgr.Key(worker))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not held\n", mgr.Key(worker))
			}
			return nil
		},
	}
}
