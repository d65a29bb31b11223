// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsDeletedOnly bool

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:                   "ls [flags]",
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Short:                 "Lists every reconstructed directory with its full path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			cmd.SilenceUsage = true
			return err
		}

		for _, id := range cat.NameIdentities() {
			ent, _ := cat.LookupName(id)
			if lsDeletedOnly && !ent.Deleted {
				continue
			}
			path, err := cat.GetFullParentPath(id)
			if err != nil {
				// a cyclic chain poisons one listing, not the whole walk
				fmt.Printf("%s\t<%v>\n", id, err)
				continue
			}
			marker := ""
			if ent.Deleted {
				marker = "\t(deleted)"
			}
			fmt.Printf("%s\t%s%s\n", id, path, marker)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVar(&lsDeletedOnly, "deleted", false, "list only deleted directories")
	rootCmd.AddCommand(lsCmd)
}
