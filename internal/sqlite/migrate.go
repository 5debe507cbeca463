package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/random"
)

// migrate brings the tables of the database in line with schemaDefinition.
//
// The target schema is built in a throwaway in-memory database that is attached next to the real one.
// Comparing the two sqlite_schema tables tells which tables to drop, create or rebuild. Rebuilding follows the
// generalized ALTER TABLE procedure of https://www.sqlite.org/lang_altertable.html#otheralter and keeps the
// columns the old and new definitions share.
func (db *Database) migrate(ctx context.Context, schemaDefinition string) (err error) {
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign keys")
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, errors.Wrap(fkErr, "enable foreign keys"))
		}
	}()

	var targetName string
	if targetName, err = random.Letters(20); err != nil { //nolint:mnd // name length
		return errors.Wrap(err, "generate target name")
	}
	targetDSN := fmt.Sprintf("file:%s?mode=memory&cache=shared", targetName)
	target, err := sql.Open("sqlite3", targetDSN)
	if err != nil {
		return errors.Wrap(err, "open target database")
	}
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelWarn, "failed to close target database",
				errors.SlogError(errors.Wrap(closeErr, "close target database")))
		}
	}()
	// The in-memory target only lives while a connection is open.
	target.SetMaxIdleConns(1)
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return errors.Wrap(err, "build target schema")
	}

	// ATTACH cannot run inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS target", targetDSN); err != nil {
		return errors.Wrap(err, "attach target database")
	}
	defer func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE target"); detachErr != nil {
			err = errors.Join(err, errors.Wrap(detachErr, "detach target database"))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to roll back migration",
				errors.SlogError(errors.Wrap(rbErr, "rollback")))
		}
	}()

	if err = db.syncTables(ctx, tx); err != nil {
		return errors.Wrap(err, "sync tables")
	}
	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return errors.Wrap(err, "check foreign keys")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit migration")
	}
	return nil
}

// tableDiff pairs the current and target definition of a table. An empty side means the table is missing there.
type tableDiff struct {
	name    string
	current string
	target  string
}

const tableDiffQuery = `
SELECT name, COALESCE(MAX(CASE WHEN side = 'current' THEN sql END), ''),
             COALESCE(MAX(CASE WHEN side = 'target' THEN sql END), '')
FROM (SELECT 'current' AS side, name, sql FROM main.sqlite_schema WHERE type = 'table'
      UNION ALL
      SELECT 'target' AS side, name, sql FROM target.sqlite_schema WHERE type = 'table')
WHERE name NOT LIKE 'sqlite_%'
GROUP BY name
ORDER BY name`

func (db *Database) syncTables(ctx context.Context, tx *sql.Tx) error {
	diffs, err := queryTableDiffs(ctx, tx)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		attrs := []slog.Attr{slog.String("table", d.name)}
		switch {
		case d.current == d.target:
			continue
		case d.target == "":
			db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", attrs...)
			_, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", d.name))
		case d.current == "":
			db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", attrs...)
			_, err = tx.ExecContext(ctx, d.target)
		default:
			db.logger.LogAttrs(ctx, slog.LevelInfo, "rebuilding table", attrs...)
			err = rebuildTable(ctx, tx, d)
		}
		if err != nil {
			return errors.Wrap(err, "migrate table", attrs...)
		}
	}
	return nil
}

func rebuildTable(ctx context.Context, tx *sql.Tx, d tableDiff) error {
	tmp := d.name + "_migration_tmp"
	createTmp := strings.Replace(d.target, d.name, tmp, 1)
	if _, err := tx.ExecContext(ctx, createTmp); err != nil {
		return errors.Wrap(err, "create temporary table", slog.String("query", createTmp))
	}

	columns, err := queryStrings(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table) AS current
JOIN PRAGMA_TABLE_INFO(:table, 'target') AS target ON target.name = current.name`, sql.Named("table", d.name))
	if err != nil {
		return errors.Wrap(err, "query common columns")
	}
	if len(columns) > 0 {
		common := strings.Join(columns, ", ")
		//nolint:gosec // identifiers come from sqlite_schema
		copyData := fmt.Sprintf("INSERT INTO %q (%s) SELECT %s FROM %q", tmp, common, common, d.name)
		if _, err = tx.ExecContext(ctx, copyData); err != nil {
			return errors.Wrap(err, "copy rows", slog.String("query", copyData))
		}
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %q", d.name)); err != nil {
		return errors.Wrap(err, "drop old table")
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %q RENAME TO %q", tmp, d.name)); err != nil {
		return errors.Wrap(err, "rename temporary table")
	}
	return nil
}

func queryTableDiffs(ctx context.Context, tx *sql.Tx) ([]tableDiff, error) {
	rows, err := tx.QueryContext(ctx, tableDiffQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query table diffs")
	}
	defer rows.Close()
	var diffs []tableDiff
	for rows.Next() {
		var d tableDiff
		if err = rows.Scan(&d.name, &d.current, &d.target); err != nil {
			return nil, errors.Wrap(err, "scan table diff")
		}
		diffs = append(diffs, d)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate table diffs")
	}
	return diffs, nil
}

// queryStrings returns the single column of query as a slice.
func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()
	var results []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		results = append(results, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return results, nil
}
