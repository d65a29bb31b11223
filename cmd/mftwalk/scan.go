// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IBM/mftwalk/scanner"
)

var scanYAML bool

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:                   "scan [flags] <MFT>",
	DisableFlagsInUseLine: true,
	Args:                  cobra.ExactArgs(1),
	Short:                 "Parses a raw MFT image and persists the reconstructed catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := os.ReadFile(args[0])
		if err != nil {
			// this error isn't related to usage, it's more likely a typo
			cmd.SilenceUsage = true
			return err
		}

		cat, err := scanner.ParseTable(table, true)
		if err != nil {
			cmd.SilenceUsage = true
			return err
		}

		fmt.Printf("Records:\n\tActive: %d\n\tFree: %d\n\tBad: %d\n\tUninitialized: %d\n\tNamed directories: %d\n",
			len(cat.Active), len(cat.Free), len(cat.Bad), len(cat.Uninitialized), cat.NameCount())

		if scanYAML {
			return cat.PersistYAML(dbPath)
		}
		return cat.Persist(dbPath)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanYAML, "yaml", false, "persist the catalog as YAML instead of compressed gob")
	rootCmd.AddCommand(scanCmd)
}
