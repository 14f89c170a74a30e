/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/hemoscan/cmd"
	"github.com/humaidq/hemoscan/logging"
)

func main() {
	logger := logging.Logger(logging.SourceApp)

	app := &cli.Command{
		Name:  "hemoscan",
		Usage: "Hemoscan - CBC anemia screening",
		Commands: []*cli.Command{
			cmd.CmdServe,
			cmd.CmdAnalyze,
			cmd.CmdHistory,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("hemoscan failed", "error", err)
	}
}
