// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/IBM/mftwalk/record"
	"github.com/IBM/mftwalk/store"
)

// resolveIdentity accepts either the full ENTRY-SEQ form or a bare decimal
// entry number, in which case the sequence is looked up from the live
// record. The bare form is what other forensic tools usually print.
func resolveIdentity(cat *store.Catalog, arg string) (record.Identity, error) {
	if id, err := record.ParseIdentity(arg); err == nil {
		return id, nil
	}
	entry, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return record.Identity{}, fmt.Errorf("cannot parse %q as a record identity or entry number", arg)
	}
	for id := range cat.Active {
		if id.Entry == uint32(entry) {
			return id, nil
		}
	}
	for id := range cat.Free {
		if id.Entry == uint32(entry) {
			return id, nil
		}
	}
	return record.Identity{}, fmt.Errorf("no record with entry number %d", entry)
}

// pathCmd represents the path command
var pathCmd = &cobra.Command{
	Use:                   "path [flags] <IDENTITY|ENTRY>...",
	DisableFlagsInUseLine: true,
	Args:                  cobra.MinimumNArgs(1),
	Short:                 "Resolves the full path of the named records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			cmd.SilenceUsage = true
			return err
		}

		for _, arg := range args {
			id, err := resolveIdentity(cat, arg)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			path, err := cat.GetFullParentPath(id)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			fmt.Printf("%s\t%s\n", id, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathCmd)
}
