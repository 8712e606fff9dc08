/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/session"
	"sigs.k8s.io/yaml"
)

type recordView struct {
	Key  string `json:"key"`
	Seq  uint64 `json:"seq"`
	Data any    `json:"data"`
}

func newDumpCommand(v *viper.Viper, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <table>",
		Short: "Print the records of a table",
		Long: `Print the records of a table in insertion order.

Records can be filtered with --where field=value; the value is read as JSON
if possible, else as string.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(v.GetStringSlice("where"), v.GetInt("limit"))
			if err != nil {
				return err
			}
			cfg, err := storageConfiguration(v)
			if err != nil {
				return err
			}
			return session.Lease(cmd.Context(), cfg, func(c *session.Conn) error {
				records, err := c.Scan(cmd.Context(), args[0], q)
				if err != nil {
					return err
				}
				return render(stdout, v.GetString("output"), records)
			})
		},
	}
	cmd.Flags().StringSlice("where", nil, "field=value equality filter, may be repeated")
	cmd.Flags().Int("limit", 0, "maximum number of records")
	cmd.Flags().StringP("output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func buildQuery(where []string, limit int) (*query.Query, error) {
	if len(where) == 0 && limit <= 0 {
		return nil, nil
	}
	q := query.New()
	for _, w := range where {
		field, raw, ok := strings.Cut(w, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, expected field=value", w)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		q.EqualTo(field, value)
	}
	if limit > 0 {
		q.Limit(limit)
	}
	return q, q.Err()
}

func views(records []datastore.Record) []recordView {
	out := make([]recordView, 0, len(records))
	for _, r := range records {
		var data any
		if err := json.Unmarshal(r.Data, &data); err != nil {
			data = string(r.Data)
		}
		out = append(out, recordView{Key: r.Key, Seq: r.Seq, Data: data})
	}
	return out
}

func render(w io.Writer, format string, records []datastore.Record) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml", "":
		data, err = yaml.Marshal(views(records))
	case "json":
		data, err = json.MarshalIndent(views(records), "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
