package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// #region write-file
// WriteFile publishes rec as JSON at path via a temp file and rename, so a reader
// never observes a partial record.
func WriteFile(path string, rec DecisionRecord) (err error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadFile loads a record written by WriteFile.
func ReadFile(path string) (DecisionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DecisionRecord{}, fmt.Errorf("read record: %w", err)
	}
	var rec DecisionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return DecisionRecord{}, fmt.Errorf("parse record: %w", err)
	}
	return rec, nil
}

// #endregion write-file
