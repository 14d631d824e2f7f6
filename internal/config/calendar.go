package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sawpanic/asxscreen/internal/domain"
)

var validEventTypes = map[domain.EventType]bool{
	domain.EventEarnings:   true,
	domain.EventDividend:   true,
	domain.EventBaselIII:   true,
	domain.EventRegulatory: true,
}

// LoadCalendar reads config/event_calendar.csv (header: ticker,event_type,
// date,title,url; date is YYYY-MM-DD). Dates are parsed in loc (the market
// timezone, Australia/Sydney) per §9's timezone-correctness note so no
// naive/aware comparison ever happens downstream. Extra/malformed rows
// beyond the required columns are ignored rather than failing the whole
// file, matching §4.4's "manual calendar" role as a best-effort source.
func LoadCalendar(path string, loc *time.Location) ([]domain.EventInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("open calendar: %w", err)}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("read header: %w", err)}
	}
	cols := indexColumns(header)
	for _, required := range []string{"ticker", "event_type", "date"} {
		if _, ok := cols[required]; !ok {
			return nil, &domain.ConfigError{File: path, Err: fmt.Errorf("missing required column %q", required)}
		}
	}

	var events []domain.EventInfo
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // malformed row, skip
		}

		ticker := field(row, cols, "ticker")
		eventType := domain.EventType(field(row, cols, "event_type"))
		dateStr := field(row, cols, "date")
		if ticker == "" || dateStr == "" || !validEventTypes[eventType] {
			continue
		}

		date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
		if err != nil {
			continue
		}

		events = append(events, domain.EventInfo{
			Symbol:    ticker,
			EventType: eventType,
			Date:      date,
			Source:    domain.EventSourceCalendarCSV,
			Title:     field(row, cols, "title"),
			URL:       field(row, cols, "url"),
		})
	}

	return events, nil
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
