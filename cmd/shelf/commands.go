// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// rootCmd builds the command tree bound to c.
func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shelf",
		Short: "Manage a hierarchical book catalog",
		Long: `Shelf files books under a tree of categories such as
"Science/Physics" and keeps a running count of the books below every
category. The catalog is stored in an embedded database and can be
imported from and exported to CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return badArgs(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default ~/.aleutian/shelf.yaml)")
	pf.StringVar(&c.flags.dataDir, "data-dir", "", "database directory (overrides storage.data_dir)")
	pf.StringVar(&c.flags.personality, "personality", "", "output style: full, standard, minimal, machine")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.flags.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	pf.BoolVar(&c.flags.json, "json", false, "print results as JSON where supported")

	root.AddCommand(
		c.importCmd(),
		c.exportCmd(),
		c.listCmd(),
		c.findCmd(),
		c.findAllCmd(),
		c.statsCmd(),
		c.verifyCmd(),
		c.bookCmd(),
		c.categoryCmd(),
		c.shellCmd(),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting failures as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return badArgs(cobra.ExactArgs(n)(cmd, args))
	}
}

// rangeArgs is cobra.RangeArgs reporting failures as usage errors.
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return badArgs(cobra.RangeArgs(lo, hi)(cmd, args))
	}
}
