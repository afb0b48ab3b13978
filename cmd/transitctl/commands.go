package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/transitdir/internal/config"
	"github.com/JonMunkholm/transitdir/internal/core"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.Store.Backend != config.BackendPostgres {
				fmt.Fprintln(cmd.OutOrStdout(), "memory backend: nothing to migrate")
				return nil
			}
			// store.Open migrates the postgres schema before returning.
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

type importOptions struct {
	update bool
	token  string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <kind> <file>",
		Short: "Import a CSV file of stops, lines, vehicles or positions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := core.ParseKind(args[0])
			if err != nil {
				return err
			}

			e, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			svc, err := e.service(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			mode := core.ModeInsert
			if opts.update {
				mode = core.ModeUpdate
			}
			res, err := svc.Import(cmd.Context(), core.TokenCredential(opts.token), def.Kind, mode, f)
			if res != nil {
				fmt.Fprintln(cmd.OutOrStdout(), res.Render())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.update, "update", false, "Merge rows into existing records instead of creating them")
	cmd.Flags().StringVar(&opts.token, "token", "", "Auth token (required)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage auth tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <token>",
		Short: "Persist an auth token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid token %q: must be an integer", args[0])
			}

			e, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.backend.AddToken(cmd.Context(), token); err != nil {
				return err
			}
			if e.cfg.Store.Backend != config.BackendPostgres {
				e.logger.Warn("memory backend does not persist tokens across runs")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token %d added\n", token)
			return nil
		},
	})

	return cmd
}
