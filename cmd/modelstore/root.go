/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/storagemodels"

	_ "github.com/suparena/modelstore/datastore/bolt"
	_ "github.com/suparena/modelstore/datastore/ddb"
	_ "github.com/suparena/modelstore/datastore/memory"
)

const envPrefix = "MODELSTORE"

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	rc := &cobra.Command{
		Use:   "modelstore",
		Short: "Inspect and watch modelstore databases.",
		Long: `Inspect and watch modelstore databases.

The database is selected by a configuration file (--config) and the name of
a configuration in it (--configuration, default: the default configuration
of the file), or directly by the path of a bolt database (--path).
Every flag may also be given as environment variable MODELSTORE_<FLAG>.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindConfig(v, cmd)
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "configuration file to read from")
	rc.PersistentFlags().String("configuration", "", "name of the configuration to use")
	rc.PersistentFlags().String("path", "", "bolt database file, used without configuration file")
	rc.PersistentFlags().Uint64("schema-version", 0, "schema version of the bolt database given by --path")

	rc.AddCommand(newVersionCommand(stdout))
	rc.AddCommand(newDumpCommand(v, stdout))
	rc.AddCommand(newWatchCommand(v, stdout))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// bindConfig makes flags, MODELSTORE_ environment variables and defaults
// available through v, in that priority order.
func bindConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return nil
}

// storageConfiguration determines the database the command works on.
func storageConfiguration(v *viper.Viper) (storagemodels.Configuration, error) {
	if file := v.GetString("config"); file != "" {
		f, err := config.Load(file)
		if err != nil {
			return storagemodels.Configuration{}, err
		}
		name := v.GetString("configuration")
		if name == "" {
			name = f.Default
		}
		if name == "" {
			return storagemodels.Configuration{}, fmt.Errorf("%s has no default configuration, use --configuration", file)
		}
		return f.Configuration(name)
	}

	path := v.GetString("path")
	if path == "" {
		return storagemodels.Configuration{}, fmt.Errorf("either --config or --path is required")
	}
	cfg := storagemodels.NewConfiguration("cli",
		storagemodels.WithPath(path),
		storagemodels.WithSchemaVersion(v.GetUint64("schema-version")),
	)
	return cfg, cfg.Validate()
}
