// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/internal/render"
)

var errCacheDisabled = errors.New("the local cache is disabled: set cache.dir or drop --no-cache")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local status and report cache",
	Long: `Cache manages the SQLite file that keeps the last observed idea,
collection, analysis and report records.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached records, newest first",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached record",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.cache == nil {
			return errCacheDisabled
		}

		n, err := a.cache.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed %d cached record(s) from %s\n", n, a.cache.Path())
		return nil
	},
}

func init() {
	cacheListCmd.Flags().String("kind", "", "only list one kind: idea, collection, analysis, report")
	cacheListCmd.Flags().Bool("yaml", false, "export the records as YAML")

	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := cache.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	yamlOutput, _ := cmd.Flags().GetBool("yaml")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.cache == nil {
		return errCacheDisabled
	}

	if yamlOutput {
		return a.cache.ExportYAML(cmd.Context(), a.out, kind)
	}
	entries, err := a.cache.List(cmd.Context(), kind)
	if err != nil {
		return err
	}
	render.CacheTable(a.out, entries)
	return nil
}
