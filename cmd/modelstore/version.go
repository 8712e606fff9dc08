/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/suparena/modelstore"
	"sigs.k8s.io/yaml"
)

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(modelstore.GetVersionInfo())
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	}
}
