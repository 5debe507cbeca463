package sqlite

import (
	"context"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/persistence"
)

// AppendRow inserts rec into the responses table.
func (db *Database) AppendRow(ctx context.Context, rec persistence.Record) error {
	if _, err := db.ReadWrite.ExecContext(ctx, `INSERT INTO responses
    (cpf, gender, professional, has_plan, frequency, submitted_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CPF, rec.Gender, rec.Professional, rec.HasPlan, rec.Frequency, rec.SubmittedAt); err != nil {
		return errors.Wrap(err, "insert response")
	}
	return nil
}

// ListResponses returns up to limit of the most recent responses, newest first.
func (db *Database) ListResponses(ctx context.Context, limit int) ([]persistence.Record, error) {
	rows, err := db.ReadOnly.QueryContext(ctx, `SELECT cpf, gender, professional, has_plan, frequency, submitted_at
FROM responses
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query responses")
	}
	defer rows.Close()

	var records []persistence.Record
	for rows.Next() {
		var rec persistence.Record
		if err = rows.Scan(&rec.CPF, &rec.Gender, &rec.Professional, &rec.HasPlan, &rec.Frequency,
			&rec.SubmittedAt); err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate responses")
	}
	return records, nil
}

// CountResponses returns the number of stored responses.
func (db *Database) CountResponses(ctx context.Context) (int, error) {
	var count int
	if err := db.ReadOnly.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count responses")
	}
	return count, nil
}
