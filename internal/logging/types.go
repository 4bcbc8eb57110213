package logging

import (
	"database/sql"
	"time"
)

// #region execer
// Execer is satisfied by *sql.DB, *sql.Tx and *state.Tx. Writing through the
// tick's transaction keeps log rows atomic with the version they describe.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Querier is the read side used by the inspect queries.
type Querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// #endregion execer

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	VersionID      string
	Tick           uint64
	Idle           bool
	ImpulseIDs     []int
	IntensityLevel int
	Mood           float64
	Reason         string
	RecordJSON     string // the DecisionRecord exactly as published
	CreatedAt      time.Time
}

// #endregion decision-entry

// #region feedback-entry
// FeedbackEntry is a single row in the feedback_log table.
type FeedbackEntry struct {
	VersionID string
	ImpulseID int
	Signal    int
	Source    string // "tick" | "cli" | "replay"
	CreatedAt time.Time
}

// #endregion feedback-entry
