package logging

import (
	"encoding/json"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a row to the decision_log table.
func LogDecision(db Execer, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	ids := entry.ImpulseIDs
	if ids == nil {
		ids = []int{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal impulse ids: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO decision_log (version_id, tick, idle, impulse_ids, intensity_level, mood, reason, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.VersionID,
		int64(entry.Tick),
		entry.Idle,
		string(idsJSON),
		entry.IntensityLevel,
		entry.Mood,
		nullIfEmpty(entry.Reason),
		entry.RecordJSON,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region log-feedback
// LogFeedback writes a row to the feedback_log table.
func LogFeedback(db Execer, entry FeedbackEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO feedback_log (version_id, impulse_id, signal, source, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.VersionID,
		entry.ImpulseID,
		entry.Signal,
		nullIfEmpty(entry.Source),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log feedback: %w", err)
	}
	return nil
}

// #endregion log-feedback

// #region recent-decisions
// RecentDecisions returns up to limit decision rows, newest first.
func RecentDecisions(db Querier, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT version_id, tick, idle, impulse_ids, intensity_level, mood, reason, record_json, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var tick int64
		var idsJSON, createdStr string
		var reason *string
		if err := rows.Scan(&e.VersionID, &tick, &e.Idle, &idsJSON, &e.IntensityLevel, &e.Mood, &reason, &e.RecordJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Tick = uint64(tick)
		if err := json.Unmarshal([]byte(idsJSON), &e.ImpulseIDs); err != nil {
			return nil, fmt.Errorf("decode impulse ids: %w", err)
		}
		if reason != nil {
			e.Reason = *reason
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion recent-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
