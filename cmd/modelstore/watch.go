/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/scheduler"
	"github.com/suparena/modelstore/session"
	"github.com/suparena/modelstore/storagemodels"
)

func newWatchCommand(v *viper.Viper, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <table>",
		Short: "Print the records of a table whenever they change",
		Long: `Print the records of a table after loading them and again after every
change committed by this process, until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(v.GetStringSlice("where"), 0)
			if err != nil {
				return err
			}
			cfg, err := storageConfiguration(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cfg, args[0], q, v.GetString("output"), stdout)
		},
	}
	cmd.Flags().StringSlice("where", nil, "field=value equality filter, may be repeated")
	cmd.Flags().StringP("output", "o", "yaml", "output format: yaml or json")
	return cmd
}

// watch runs a live query on its own loop until ctx is done or the query
// fails.
func watch(ctx context.Context, cfg storagemodels.Configuration, table string, q *query.Query, format string, w io.Writer) error {
	loop := scheduler.New("watch")
	defer func() {
		loop.Close()
		loop.Wait()
	}()

	failed := make(chan error, 1)
	fail := func(err error) {
		select {
		case failed <- err:
		default:
		}
	}

	var conn *session.Conn
	err := loop.Dispatch(ctx, func(ctx context.Context) {
		c, err := session.Open(ctx, cfg)
		if err != nil {
			fail(err)
			return
		}
		conn = c
		results, err := c.FindAllAsync(ctx, table, q)
		if err != nil {
			fail(err)
			return
		}
		results.AddChangeListener(func(r *session.LiveResults, err error) {
			if err != nil {
				fail(err)
				return
			}
			fmt.Fprintf(w, "# %s: %d records\n", table, r.Len())
			if err := render(w, format, r.Records()); err != nil {
				fail(err)
			}
		})
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err = <-failed:
	}
	loop.Post(func(context.Context) {
		if conn != nil {
			conn.Close()
		}
	})
	return err
}
