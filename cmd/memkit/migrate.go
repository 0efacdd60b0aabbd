// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/memkit/config"
	"github.com/sage-x-project/memkit/memory"
	"github.com/sage-x-project/memkit/migrate"
	"github.com/sage-x-project/memkit/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-markdown <dir>",
	Short: "Import a directory of Markdown notes into memory",
	Long: `Import every .md file under a directory into the memory store.

Each file becomes one entry; substantial sections become linked
entries referencing it. Re-running on unchanged files is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

var migrateNamespace string

func init() {
	migrateCmd.Flags().StringVarP(&migrateNamespace, "namespace", "n", "docs", "Target namespace")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	engine, err := storage.NewEngine(cfg, nil)
	if err != nil {
		return err
	}
	svc := memory.New(engine)
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer svc.Shutdown(ctx)

	migrator := migrate.NewMigrator(svc, migrateNamespace, nil)
	result, err := migrator.ImportDir(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(result)
	for _, failure := range result.Failures {
		fmt.Printf("  failed: %s: %s\n", failure.Path, failure.Err)
	}
	return nil
}
