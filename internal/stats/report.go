package stats

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"
	"github.com/verte-zerg/tuicards/internal/store"
)

// ForecastDays is how far ahead the due forecast looks.
const ForecastDays = 14

// Report contains precomputed data for stats rendering.
type Report struct {
	Sets      []model.SetStats
	Forecasts map[string][]int // set id -> due counts per day
}

// BuildReport loads scheduling stats for the union of the given set ids and
// every set with stored history.
func BuildReport(ctx context.Context, st *store.Store, setIDs []string, now time.Time) (Report, error) {
	storedIDs, err := st.SetIDs(ctx)
	if err != nil {
		return Report{}, err
	}
	idSet := map[string]struct{}{}
	for _, id := range setIDs {
		idSet[id] = struct{}{}
	}
	for _, id := range storedIDs {
		idSet[id] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	report := Report{Forecasts: map[string][]int{}}
	for _, id := range ids {
		stats, err := st.Stats(ctx, id, now)
		if err != nil {
			return Report{}, err
		}
		report.Sets = append(report.Sets, stats)
		forecast, err := st.DueForecast(ctx, id, now, ForecastDays)
		if err != nil {
			return Report{}, err
		}
		report.Forecasts[id] = forecast
	}
	return report, nil
}

// WriteReport renders the report as an aligned table followed by per-set due
// forecasts. A non-positive width falls back to the detected terminal width.
func WriteReport(w io.Writer, report Report, width int) error {
	if width <= 0 {
		width = TerminalWidth()
	}
	if len(report.Sets) == 0 {
		_, err := fmt.Fprintln(w, "No sets with review history.")
		return err
	}

	headers := []string{"Set", "Total", "New", "Learning", "Due", "Reviews"}
	rows := make([][]string, 0, len(report.Sets))
	for _, s := range report.Sets {
		rows = append(rows, []string{
			s.SetID,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.New),
			strconv.Itoa(s.Learning),
			strconv.Itoa(s.ReviewDue),
			strconv.Itoa(s.Logged),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, clip(line, width)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nDue forecast (next %dd):\n", ForecastDays); err != nil {
		return err
	}
	for _, s := range report.Sets {
		line := fmt.Sprintf("%s  [%s]", s.SetID, Sparkline(report.Forecasts[s.SetID]))
		if _, err := fmt.Fprintln(w, clip(line, width)); err != nil {
			return err
		}
	}
	return nil
}

func clip(line string, width int) string {
	runes := []rune(line)
	if width <= 0 || len(runes) <= width {
		return line
	}
	return string(runes[:width])
}
