package data

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"strings"

	"github.com/ansel1/merry"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"
)

// CSV header names of the source file.
const (
	colCasting   = "Casting ID"
	colYears     = "Years"
	colCID       = "CID"
	colLowPower  = "Low Power"
	colHighPower = "High Power"
	colMainCaps  = "Main Caps"
	colComments  = "Comments"
)

var requiredColumns = []string{colCasting, colYears, colCID, colLowPower, colHighPower, colMainCaps}

type ImportStats struct {
	Read     int
	Inserted int
	Skipped  int
}

// Import loads castings from CSV. Rows whose casting already exists are
// left untouched, so importing the same file twice changes nothing.
func Import(ctx context.Context, log *structlog.Logger, db *sqlx.DB, r io.Reader) (ImportStats, error) {
	var stats ImportStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return stats, merry.New("empty csv: header expected")
	}
	if err != nil {
		return stats, merry.Append(err, "read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return stats, merry.Errorf("csv header: missing column %q", name)
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return stats, merry.Append(err, "begin transaction")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.PrintErr(merry.Append(err, "rollback"))
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `
INSERT OR IGNORE INTO castings (casting, years, cid, low_power, high_power, main_caps, comments)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, merry.Append(err, "prepare insert")
	}
	defer log.ErrIfFail(stmt.Close)

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, merry.Append(err, "read csv row")
		}
		stats.Read++

		field := func(name string) (string, bool) {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return "", false
			}
			return strings.TrimSpace(rec[i]), true
		}

		values := make([]interface{}, 0, len(requiredColumns)+1)
		valid := true
		for _, name := range requiredColumns {
			v, ok := field(name)
			if !ok || (name == colCasting && v == "") {
				valid = false
				break
			}
			values = append(values, v)
		}
		if !valid {
			stats.Skipped++
			log.Warn("skip row", "line", stats.Read+1, "row", rec)
			continue
		}
		comments, _ := field(colComments)
		values = append(values, comments)

		res, err := stmt.ExecContext(ctx, values...)
		if err != nil {
			return stats, merry.Appendf(err, "insert row %d", stats.Read+1)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return stats, merry.Wrap(err)
		}
		stats.Inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return stats, merry.Append(err, "commit")
	}
	return stats, nil
}
