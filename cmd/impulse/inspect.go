package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/logging"
	"github.com/danielpatrickdp/impulse-engine/internal/state"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	inspectLast      int
	inspectDecisions int
	inspectVersion   string
	inspectTop       int
	inspectJSON      bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show state versions, one version in detail, or recent decisions",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "Show N most recent versions")
	inspectCmd.Flags().IntVar(&inspectDecisions, "decisions", 0, "Show N most recent decisions instead of versions")
	inspectCmd.Flags().StringVar(&inspectVersion, "version", "", "Show single version detail")
	inspectCmd.Flags().IntVar(&inspectTop, "top", 10, "Impulses listed in version detail")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON instead of table")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectLast <= 0 || inspectDecisions < 0 || inspectTop < 0 {
		return usagef("--last must be positive and --decisions/--top non-negative")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store %s: %w", dbPath, err)
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	switch {
	case inspectVersion != "":
		return runDetailMode(w, store, cfg, inspectVersion)
	case inspectDecisions > 0:
		return runDecisionMode(w, store, inspectDecisions)
	default:
		return runListMode(w, store, inspectLast)
	}
}

// #region list-mode

type listRow struct {
	VersionID  string  `json:"version_id"`
	ParentID   string  `json:"parent_id,omitempty"`
	Tick       uint64  `json:"tick"`
	Mood       float64 `json:"mood"`
	MeanWeight float64 `json:"mean_weight"`
	Feedback   int     `json:"feedback"`
	CreatedAt  string  `json:"created_at"`
}

func runListMode(w io.Writer, store *state.Store, last int) error {
	versions, err := store.ListVersions(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(w, "no versions found")
		return nil
	}

	// store returns DESC, reverse for chronological
	rows := make([]listRow, len(versions))
	for i, v := range versions {
		rows[len(versions)-1-i] = listRow{
			VersionID:  v.VersionID,
			ParentID:   v.ParentID,
			Tick:       v.Tick,
			Mood:       v.Mood,
			MeanWeight: stat.Mean(v.Weights, nil),
			Feedback:   feedbackCount(v),
			CreatedAt:  v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if inspectJSON {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-10s  %-10s  %6s  %7s  %11s  %8s  %s\n",
		"Version", "Parent", "Tick", "Mood", "Mean Weight", "Feedback", "Time")
	fmt.Fprintf(w, "%-10s+-%-10s+-%6s+-%7s+-%11s+-%8s+-%s\n",
		"----------", "----------", "------", "-------", "-----------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s  %-10s  %6d  %+7.3f  %11.4f  %8d  %s\n",
			shortID(r.VersionID), shortID(r.ParentID), r.Tick, r.Mood, r.MeanWeight, r.Feedback, r.CreatedAt)
	}
	return nil
}

func feedbackCount(v state.StateRecord) int {
	n := 0
	for _, c := range v.Counters {
		n += c.Positive + c.Negative
	}
	return n
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	VersionID string          `json:"version_id"`
	ParentID  string          `json:"parent_id"`
	Tick      uint64          `json:"tick"`
	Mood      float64         `json:"mood"`
	CreatedAt string          `json:"created_at"`
	Impulses  []impulseDetail `json:"impulses"`
}

type impulseDetail struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Membrane float64 `json:"membrane"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
}

func runDetailMode(w io.Writer, store *state.Store, cfg config.Config, versionID string) error {
	v, err := store.GetVersion(versionID)
	if err != nil {
		return err
	}
	names := cfg.ImpulseNames()

	var imps []impulseDetail
	for i, wt := range v.Weights {
		d := impulseDetail{ID: i, Weight: wt, Name: "?"}
		if i < len(names) {
			d.Name = names[i]
		}
		if i < len(v.Membrane) {
			d.Membrane = v.Membrane[i]
		}
		if i < len(v.Counters) {
			d.Positive, d.Negative = v.Counters[i].Positive, v.Counters[i].Negative
		}
		imps = append(imps, d)
	}
	sort.SliceStable(imps, func(a, b int) bool { return imps[a].Weight > imps[b].Weight })
	if inspectTop > 0 && len(imps) > inspectTop {
		imps = imps[:inspectTop]
	}

	out := detailOutput{
		VersionID: v.VersionID,
		ParentID:  v.ParentID,
		Tick:      v.Tick,
		Mood:      v.Mood,
		CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Impulses:  imps,
	}
	if inspectJSON {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Version:  %s\n", out.VersionID)
	fmt.Fprintf(w, "Parent:   %s\n", out.ParentID)
	fmt.Fprintf(w, "Tick:     %d\n", out.Tick)
	fmt.Fprintf(w, "Mood:     %+.4f\n", out.Mood)
	fmt.Fprintf(w, "Created:  %s\n", out.CreatedAt)
	if err := state.Validate(v, cfg.Dimensions); err != nil {
		fmt.Fprintf(w, "Invalid:  %v\n", err)
	}

	fmt.Fprintf(w, "\nTop impulses by weight:\n")
	for _, d := range out.Impulses {
		fmt.Fprintf(w, "  %3d %-16s w=%.4f  m=%+.4f  +%d/-%d\n", d.ID, d.Name, d.Weight, d.Membrane, d.Positive, d.Negative)
	}
	return nil
}

// #endregion detail-mode

// #region decision-mode

type decisionRow struct {
	Tick      uint64   `json:"tick"`
	Idle      bool     `json:"idle"`
	Impulses  []string `json:"impulses"`
	Level     int      `json:"intensity_level"`
	Mood      float64  `json:"mood_snapshot"`
	Reason    string   `json:"reason,omitempty"`
	VersionID string   `json:"version_id"`
}

func runDecisionMode(w io.Writer, store *state.Store, n int) error {
	entries, err := logging.RecentDecisions(store.DB(), n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no decisions found")
		return nil
	}

	rows := make([]decisionRow, len(entries))
	for i, e := range entries {
		var rec struct {
			Impulses []string `json:"impulses"`
		}
		_ = json.Unmarshal([]byte(e.RecordJSON), &rec)
		rows[len(entries)-1-i] = decisionRow{
			Tick:      e.Tick,
			Idle:      e.Idle,
			Impulses:  rec.Impulses,
			Level:     e.IntensityLevel,
			Mood:      e.Mood,
			Reason:    e.Reason,
			VersionID: e.VersionID,
		}
	}
	if inspectJSON {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%6s  %-32s  %5s  %7s  %s\n", "Tick", "Impulses", "Level", "Mood", "Version")
	fmt.Fprintf(w, "%6s+-%-32s+-%5s+-%7s+-%s\n", "------", strings.Repeat("-", 32), "-----", "-------", "----------")
	for _, r := range rows {
		imps := strings.Join(r.Impulses, ", ")
		if r.Idle {
			imps = "(idle)"
		}
		fmt.Fprintf(w, "%6d  %-32s  %5d  %+7.3f  %s\n", r.Tick, imps, r.Level, r.Mood, shortID(r.VersionID))
	}
	return nil
}

// #endregion decision-mode

// #region output

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
