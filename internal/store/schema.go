package store

// Schema contains the complete DDL for the harvested wiki tables.
// name_key holds the Unicode case-folded name; NOCASE alone folds only
// ASCII.
const Schema = `
-- Characters: non-player characters with their portrait
CREATE TABLE IF NOT EXISTS characters (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
    name_key   TEXT NOT NULL UNIQUE,
    url        TEXT UNIQUE,
    info       TEXT,
    gender     TEXT,
    image_name TEXT,
    image      BLOB
);

-- Locations: previous/next are free text, the chain is not validated
CREATE TABLE IF NOT EXISTS locations (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    name     TEXT NOT NULL UNIQUE COLLATE NOCASE,
    name_key TEXT NOT NULL UNIQUE,
    url      TEXT UNIQUE,
    info     TEXT,
    previous TEXT,
    next     TEXT
);

-- Quests: location_id is NULL when location_text matched no location
CREATE TABLE IF NOT EXISTS quests (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL UNIQUE COLLATE NOCASE,
    name_key      TEXT NOT NULL UNIQUE,
    url           TEXT UNIQUE,
    giver         TEXT COLLATE NOCASE,
    giver_id      INTEGER,
    location_id   INTEGER,
    location_text TEXT NOT NULL DEFAULT '',
    unresolved    INTEGER NOT NULL DEFAULT 0,
    reward        TEXT COLLATE NOCASE,
    category      TEXT NOT NULL CHECK (category IN ('main', 'side')),
    FOREIGN KEY (giver_id) REFERENCES characters(id),
    FOREIGN KEY (location_id) REFERENCES locations(id)
);
CREATE INDEX IF NOT EXISTS idx_quests_location ON quests(location_id);
CREATE INDEX IF NOT EXISTS idx_quests_giver ON quests(giver_id);

-- Catchables: fish and other catchable items
CREATE TABLE IF NOT EXISTS catchables (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL UNIQUE COLLATE NOCASE,
    name_key      TEXT NOT NULL UNIQUE,
    url           TEXT UNIQUE,
    location_text TEXT COLLATE NOCASE,
    price         INTEGER NOT NULL DEFAULT 0,
    image_name    TEXT,
    image         BLOB
);

-- Catchable <-> location, derived by substring match on location_text
CREATE TABLE IF NOT EXISTS catchable_locations (
    catchable_id INTEGER NOT NULL,
    location_id  INTEGER NOT NULL,
    PRIMARY KEY (catchable_id, location_id),
    FOREIGN KEY (catchable_id) REFERENCES catchables(id),
    FOREIGN KEY (location_id) REFERENCES locations(id)
);
CREATE INDEX IF NOT EXISTS idx_catchable_locations_location ON catchable_locations(location_id);

-- Ingest runs: one row per harvest attempt
CREATE TABLE IF NOT EXISTS ingest_runs (
    id          TEXT PRIMARY KEY,
    started_at  INTEGER NOT NULL,
    finished_at INTEGER,
    status      TEXT NOT NULL DEFAULT 'running',
    error       TEXT NOT NULL DEFAULT '',
    inserted    INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at DESC);
`
