package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS age_records (
    row_id               INTEGER PRIMARY KEY,
    age_group            TEXT NOT NULL,
    type                 TEXT NOT NULL,
    injury_mechanism     TEXT NOT NULL,
    number_est           REAL,
    rate_est             REAL
);

CREATE TABLE IF NOT EXISTS year_records (
    row_id               INTEGER PRIMARY KEY,
    injury_mechanism     TEXT NOT NULL,
    type                 TEXT NOT NULL,
    year                 INTEGER NOT NULL,
    rate_est             REAL,
    number_est           REAL
);

CREATE TABLE IF NOT EXISTS military_records (
    row_id               INTEGER PRIMARY KEY,
    service              TEXT NOT NULL,
    component            TEXT NOT NULL,
    severity             TEXT NOT NULL,
    diagnosed            REAL,
    year                 INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    kind                 TEXT PRIMARY KEY,
    file_path            TEXT NOT NULL,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_year_records_year ON year_records(year);
CREATE INDEX IF NOT EXISTS idx_military_records_year ON military_records(year);
`
