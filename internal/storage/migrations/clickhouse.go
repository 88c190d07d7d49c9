package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"token-sentinel/internal/storage/clickhouse"
)

// RunClickhouseMigrations applies all embedded SQL files in lexical order.
// ClickHouse executes one statement per Exec, so files are split on
// semicolons.
func RunClickhouseMigrations(ctx context.Context, conn *clickhouse.Conn) error {
	entries, err := fs.ReadDir(ClickhouseFS, "clickhouse")
	if err != nil {
		return fmt.Errorf("read embedded clickhouse migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(ClickhouseFS, "clickhouse/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}

	return nil
}
