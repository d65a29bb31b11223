// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IBM/mftwalk/scanner"
	"github.com/IBM/mftwalk/store"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mftwalk",
	Short: "Directory structure reconstruction from raw NTFS master file tables",
	Long: `The mftwalk utility parses a raw NTFS master file table image and rebuilds
the directory structure it describes, including directories that have been
deleted but whose records are still decodable. Records damaged by torn
writes or chkdsk are accounted for separately instead of being dropped.
The reconstructed catalog can be persisted and queried for the full path
of any record without rescanning the table.`,
}

var dbPath string
var mftPath string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "mftwalk.db", "persisted catalog file")
	rootCmd.PersistentFlags().StringVar(&mftPath, "mft", "", "raw MFT image to parse instead of loading the catalog")
}

// loadCatalog prepares the catalog the query commands run against: a fresh
// parse when --mft names an image, otherwise the persisted catalog at --db.
func loadCatalog() (*store.Catalog, error) {
	if mftPath != "" {
		table, err := os.ReadFile(mftPath)
		if err != nil {
			return nil, err
		}
		return scanner.ParseTable(table, false)
	}
	return store.RestoreCatalog(dbPath)
}
