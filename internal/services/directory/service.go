package directory

import (
	"fmt"
	"strings"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

const (
	DefaultExhibitorLimit = 50
	DefaultEventLimit     = 5
	defaultSeats          = 100
)

// Column headers of the scraped directory exports
const (
	columnExhibitorName     = "card-digitalprofile-name"
	columnExhibitorPosition = "card-digitalprofile-position"
	columnExhibitorHall     = "line-clamp-2"
	columnEventTitle        = "card-event-title"
	columnEventTimes        = "times"
	columnEventLabel        = "label"
)

type Exhibitor struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Hall     string `json:"hall"`
	Stand    string `json:"stand"`
	Category string `json:"category"`
}

type Event struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Time  string `json:"time"`
	Hall  string `json:"hall"`
	Seats int    `json:"seats"`
}

type DataSource interface {
	Load() referencedata.Data
}

// Service turns the raw reference datasets into listing rows
type Service struct {
	source DataSource
}

func NewService(source DataSource) *Service {
	return &Service{source: source}
}

// Exhibitors returns at most limit exhibitors; limit <= 0 returns all
func (s *Service) Exhibitors(limit int) ([]Exhibitor, error) {
	rows, err := parseRows(s.source.Load().Exhibitors)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exhibitors: %w", err)
	}

	exhibitors := make([]Exhibitor, 0, len(rows))
	for i, row := range rows {
		exhibitors = append(exhibitors, Exhibitor{
			ID:       i,
			Name:     row.value(columnExhibitorName, "Nome non disponibile"),
			Hall:     hallOf(row.value(columnExhibitorHall, "")),
			Stand:    row.value(columnExhibitorPosition, "Posizione"),
			Category: "Espositore",
		})
	}

	logger.Debug(logger.DATA, "Parsed %d exhibitors", len(exhibitors))
	return truncate(exhibitors, limit), nil
}

// Events returns at most limit events; limit <= 0 returns all
func (s *Service) Events(limit int) ([]Event, error) {
	rows, err := parseRows(s.source.Load().Events)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}

	events := make([]Event, 0, len(rows))
	for i, row := range rows {
		events = append(events, Event{
			ID:    i,
			Title: row.value(columnEventTitle, "Evento Senza Titolo"),
			Time:  row.value(columnEventTimes, "Orario da definire"),
			Hall:  row.value(columnEventLabel, "Luogo da definire"),
			Seats: defaultSeats,
		})
	}

	logger.Debug(logger.DATA, "Parsed %d events", len(events))
	return truncate(events, limit), nil
}

// hallOf keeps the first word of the hall column ("B1 Pad." -> "B1")
func hallOf(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "N/A"
	}
	return fields[0]
}

type row map[string]string

func (r row) value(column, fallback string) string {
	if v := strings.TrimSpace(r[column]); v != "" {
		return v
	}
	return fallback
}

// parseRows keys every record by its header column. Short rows leave the
// missing columns empty.
func parseRows(text string) ([]row, error) {
	header, records, err := referencedata.ParseRecords(text)
	if err != nil {
		return nil, err
	}

	rows := make([]row, 0, len(records))
	for _, record := range records {
		r := make(row, len(header.Fields))
		for i, column := range header.Fields {
			if i < len(record.Fields) {
				r[column] = record.Fields[i]
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
