// Package store provides a SQLite-backed cache for parsed TBI tables.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/tbidash/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed table caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked source file for one table.
type FileInfo struct {
	Path        string
	MtimeNs     int64
	SizeBytes   int64
	ParseErrors int
}

// GetTrackedFiles returns the tracked source file for every cached table.
func (c *Cache) GetTrackedFiles() (map[model.Kind]FileInfo, error) {
	rows, err := c.db.Query("SELECT kind, file_path, mtime_ns, size_bytes, parse_errors FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[model.Kind]FileInfo)
	for rows.Next() {
		var kind string
		var fi FileInfo
		if err := rows.Scan(&kind, &fi.Path, &fi.MtimeNs, &fi.SizeBytes, &fi.ParseErrors); err != nil {
			return nil, err
		}
		result[model.Kind(kind)] = fi
	}
	return result, rows.Err()
}

// SaveAge replaces the cached age table.
func (c *Cache) SaveAge(fi FileInfo, recs []model.AgeRecord) error {
	return c.replace(model.KindAge, fi, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO age_records
			(age_group, type, injury_mechanism, number_est, rate_est) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, r := range recs {
			if _, err := stmt.Exec(r.AgeGroup, r.Type, r.InjuryMechanism, nullable(r.NumberEst), nullable(r.RateEst)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveYear replaces the cached year table.
func (c *Cache) SaveYear(fi FileInfo, recs []model.YearRecord) error {
	return c.replace(model.KindYear, fi, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO year_records
			(injury_mechanism, type, year, rate_est, number_est) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, r := range recs {
			if _, err := stmt.Exec(r.InjuryMechanism, r.Type, r.Year, nullable(r.RateEst), nullable(r.NumberEst)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveMilitary replaces the cached military table.
func (c *Cache) SaveMilitary(fi FileInfo, recs []model.MilitaryRecord) error {
	return c.replace(model.KindMilitary, fi, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO military_records
			(service, component, severity, diagnosed, year) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, r := range recs {
			if _, err := stmt.Exec(r.Service, r.Component, r.Severity, nullable(r.Diagnosed), r.Year); err != nil {
				return err
			}
		}
		return nil
	})
}

// replace clears a table, lets insert repopulate it and updates the tracker,
// all in one transaction.
func (c *Cache) replace(kind model.Kind, fi FileInfo, insert func(*sql.Tx) error) error {
	table, err := tableName(kind)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return err
	}
	if err := insert(tx); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker
		(kind, file_path, mtime_ns, size_bytes, parse_errors, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?)`, string(kind), fi.Path, fi.MtimeNs, fi.SizeBytes, fi.ParseErrors, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAge reads the cached age table in file order.
func (c *Cache) LoadAge() ([]model.AgeRecord, error) {
	rows, err := c.db.Query(`SELECT age_group, type, injury_mechanism, number_est, rate_est
		FROM age_records ORDER BY row_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.AgeRecord
	for rows.Next() {
		var r model.AgeRecord
		var num, rate sql.NullFloat64
		if err := rows.Scan(&r.AgeGroup, &r.Type, &r.InjuryMechanism, &num, &rate); err != nil {
			return nil, err
		}
		r.NumberEst, r.RateEst = fromNull(num), fromNull(rate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadYear reads the cached year table in file order.
func (c *Cache) LoadYear() ([]model.YearRecord, error) {
	rows, err := c.db.Query(`SELECT injury_mechanism, type, year, rate_est, number_est
		FROM year_records ORDER BY row_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.YearRecord
	for rows.Next() {
		var r model.YearRecord
		var rate, num sql.NullFloat64
		if err := rows.Scan(&r.InjuryMechanism, &r.Type, &r.Year, &rate, &num); err != nil {
			return nil, err
		}
		r.RateEst, r.NumberEst = fromNull(rate), fromNull(num)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadMilitary reads the cached military table in file order.
func (c *Cache) LoadMilitary() ([]model.MilitaryRecord, error) {
	rows, err := c.db.Query(`SELECT service, component, severity, diagnosed, year
		FROM military_records ORDER BY row_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.MilitaryRecord
	for rows.Next() {
		var r model.MilitaryRecord
		var diag sql.NullFloat64
		if err := rows.Scan(&r.Service, &r.Component, &r.Severity, &diag, &r.Year); err != nil {
			return nil, err
		}
		r.Diagnosed = fromNull(diag)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteTable removes a cached table and its tracking entry.
func (c *Cache) DeleteTable(kind model.Kind) error {
	table, err := tableName(kind)
	if err != nil {
		return err
	}
	if _, err := c.db.Exec("DELETE FROM " + table); err != nil {
		return err
	}
	_, err = c.db.Exec("DELETE FROM file_tracker WHERE kind = ?", string(kind))
	return err
}

// RecordCount returns the number of cached rows for a table.
func (c *Cache) RecordCount(kind model.Kind) (int, error) {
	table, err := tableName(kind)
	if err != nil {
		return 0, err
	}
	var count int
	err = c.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	return count, err
}

func tableName(kind model.Kind) (string, error) {
	switch kind {
	case model.KindAge:
		return "age_records", nil
	case model.KindYear:
		return "year_records", nil
	case model.KindMilitary:
		return "military_records", nil
	}
	return "", fmt.Errorf("unknown table kind %q", kind)
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
