/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/hemoscan/archive"
)

var CmdHistory = &cli.Command{
	Name:  "history",
	Usage: "Inspect or clear archived reports",
	Flags: storeFlags(),
	Commands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List archived reports, most recent first",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print reports as JSON",
				},
				&cli.IntFlag{
					Name:  "limit",
					Usage: "show at most this many reports (0 for all)",
				},
			},
			Action: historyList,
		},
		{
			Name:  "clear",
			Usage: "Delete every archived report",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "confirm deletion",
				},
			},
			Action: historyClear,
		},
	},
}

func openHistory(ctx context.Context, cmd *cli.Command) (archive.Archive, func(), error) {
	databaseURL := cmd.String("database-url")
	sqlitePath := cmd.String("sqlite-path")
	if databaseURL == "" && sqlitePath == "" {
		return nil, nil, errStoreRequired
	}
	return openStore(ctx, databaseURL, sqlitePath)
}

func historyList(ctx context.Context, cmd *cli.Command) error {
	store, closeStore, err := openHistory(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	return listReports(ctx, cmd.Root().Writer, store, int(cmd.Int("limit")), cmd.Bool("json"))
}

func listReports(ctx context.Context, w io.Writer, store archive.Archive, limit int, asJSON bool) error {
	records, err := store.List(ctx)
	if err != nil {
		return err
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if asJSON {
		if records == nil {
			records = []archive.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No reports archived")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(w, "%s  %s  %s %dy  %-8s %-6s  %s  (%s)\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ID,
			r.Sample.Sex,
			r.Sample.Age,
			r.Result.Severity,
			r.Result.RiskLevel,
			r.Result.MorphologyType,
			r.Result.Source,
		)
	}

	return nil
}

func historyClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return errClearNotConfirmed
	}

	store, closeStore, err := openHistory(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Clear(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, "Report history cleared")
	return nil
}
