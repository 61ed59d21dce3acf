// Package postgres implements the PostgreSQL persistence layer.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: GOALS AND LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create goals, progress and ledger tables
-- Version: 001

-- Standing goal definitions. Identity is (member, name): a goal
-- survives across cycles until its owner removes it.
CREATE TABLE IF NOT EXISTS goals (
    member_id BIGINT NOT NULL,
    name VARCHAR(60) NOT NULL,
    kind VARVARCHAR(10) NOT NULL,
    style VARCHAR(15) NOT NULL,
    target INTEGER NOT NULL DEFAULT 0,
    unit VARCHAR(30) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (member_id, name),

    CONSTRAINT valid_kind CHECK (kind IN ('count', 'boolean')),
    CONSTRAINT valid_style CHECK (style IN ('incremental', 'weekly_final')),
    CONSTRAINT valid_target CHECK (target >= 0)
);

CREATE INDEX IF NOT EXISTS idx_goals_member ON goals(member_id);

-- Per-cycle tracking state, one row per (member, week, goal). Cleared
-- by cycle reset; goal definitions are untouched.
CREATE TABLE IF NOT EXISTS progress_entries (
    member_id BIGINT NOT NULL,
    week_key VARCHAR(10) NOT NULL,
    goal_name VARCHAR(60) NOT NULL,
    value INTEGER NOT NULL DEFAULT 0,
    done BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (member_id, week_key, goal_name),

    CONSTRAINT valid_value CHECK (value >= 0)
);

CREATE INDEX IF NOT EXISTS idx_progress_week ON progress_entries(week_key);

-- Append-only activity ledger. The bigserial seq is the authoritative
-- insertion order; "last note" queries rely on it, not on timestamps.
CREATE TABLE IF NOT EXISTS log_events (
    seq BIGSERIAL PRIMARY KEY,
    id UUID NOT NULL UNIQUE,
    member_id BIGINT NOT NULL,
    week_key VARCHAR(10) NOT NULL,
    goal_name VARCHAR(60) NOT NULL,
    kind VARCHAR(20) NOT NULL,
    amount INTEGER NOT NULL DEFAULT 0,
    note TEXT NOT NULL DEFAULT '',
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_log_kind CHECK (kind IN (
        'incremental-add', 'incremental-set', 'final-set',
        'boolean-complete', 'boolean-undo'
    ))
);

CREATE INDEX IF NOT EXISTS idx_log_member_week ON log_events(member_id, week_key, seq);
CREATE INDEX IF NOT EXISTS idx_log_week ON log_events(week_key, seq);
`

const migration001Down = `
DROP TABLE IF EXISTS log_events;
DROP TABLE IF EXISTS progress_entries;
DROP TABLE IF EXISTS goals;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CHALLENGE STATE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create roster, verdict and streak tables
-- Version: 002

-- Challenge roster. Leaving flips active off; the row and its history stay.
CREATE TABLE IF NOT EXISTS participants (
    member_id BIGINT PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    skip_week VARCHAR(10) NOT NULL DEFAULT '',
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_participants_active ON participants(active) WHERE active;

-- One verdict row per week; re-evaluation overwrites. Per-member results
-- are stored as JSONB because they are read back whole, never queried into.
CREATE TABLE IF NOT EXISTS cycle_verdicts (
    week_key VARCHAR(10) PRIMARY KEY,
    outcome VARCHAR(4) NOT NULL,
    results JSONB NOT NULL DEFAULT '[]'::jsonb,
    evaluated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_outcome CHECK (outcome IN ('win', 'fail'))
);

-- Team streak singleton. last_applied_week guards the transition:
-- one streak application per cycle, no matter how often evaluation runs.
CREATE TABLE IF NOT EXISTS streak_state (
    id VARCHAR(20) PRIMARY KEY,
    current INTEGER NOT NULL DEFAULT 0,
    best INTEGER NOT NULL DEFAULT 0,
    last_applied_week VARCHAR(10) NOT NULL DEFAULT '',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_streak CHECK (current >= 0 AND best >= 0)
);
`

const migration002Down = `
DROP TABLE IF EXISTS streak_state;
DROP TABLE IF EXISTS cycle_verdicts;
DROP TABLE IF EXISTS participants;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PUZZLE LEADERBOARD AND WATERMARKS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create puzzle records, podiums, skip days and watermarks
-- Version: 003

-- One row per player; per-day scores live in puzzle_scores. Lifetime
-- counters survive cycle closure, per-cycle state is recomputed.
CREATE TABLE IF NOT EXISTS puzzle_records (
    member_id BIGINT PRIMARY KEY,
    joined BOOLEAN NOT NULL DEFAULT FALSE,
    games INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0,
    wins INTEGER NOT NULL DEFAULT 0,
    last_places INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_counters CHECK (
        games >= 0 AND total >= 0 AND wins >= 0 AND last_places >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_puzzle_joined ON puzzle_records(joined) WHERE joined;

-- Per-day submitted scores for the open cycle. Resubmission replaces the
-- row; cycle closure deletes all rows for the member.
CREATE TABLE IF NOT EXISTS puzzle_scores (
    member_id BIGINT NOT NULL REFERENCES puzzle_records(member_id) ON DELETE CASCADE,
    puzzle_index INTEGER NOT NULL,
    score SMALLINT NOT NULL,

    PRIMARY KEY (member_id, puzzle_index),

    CONSTRAINT valid_score CHECK (score BETWEEN 1 AND 7)
);

-- Settled cycle outcomes, one row per week.
CREATE TABLE IF NOT EXISTS puzzle_podiums (
    week_key VARCHAR(10) PRIMARY KEY,
    gold BIGINT[] NOT NULL DEFAULT '{}',
    silver BIGINT[] NOT NULL DEFAULT '{}',
    bronze BIGINT[] NOT NULL DEFAULT '{}',
    last BIGINT[] NOT NULL DEFAULT '{}',
    closed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- One-shot skip markers: a marked date suppresses that day's penalty
-- pass and the marker is deleted when observed.
CREATE TABLE IF NOT EXISTS skip_days (
    skip_date DATE PRIMARY KEY,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Scheduler watermarks: the last calendar date each job ran its logical
-- effects for. One execution per (job, date).
CREATE TABLE IF NOT EXISTS scheduler_watermarks (
    job_id VARCHAR(40) PRIMARY KEY,
    last_run_date DATE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS scheduler_watermarks;
DROP TABLE IF EXISTS skip_days;
DROP TABLE IF EXISTS puzzle_podiums;
DROP TABLE IF EXISTS puzzle_scores;
DROP TABLE IF EXISTS puzzle_records;
`
