package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gridosc-protocol/gridosc-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Endpoints         map[string]*EndpointStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// EndpointStats holds statistics for a single local endpoint.
type EndpointStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	DeviceID  string
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Endpoints:         make(map[string]*EndpointStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track per-endpoint stats
		ep, ok := stats.Endpoints[event.EndpointID]
		if !ok {
			ep = &EndpointStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Endpoints[event.EndpointID] = ep
		}
		ep.Events++
		if event.Timestamp.After(ep.LastSeen) {
			ep.LastSeen = event.Timestamp
		}
		if event.DeviceID != "" && ep.DeviceID == "" {
			ep.DeviceID = event.DeviceID
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Grid Protocol Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerSession} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryPacket, log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Endpoints: %d\n", len(stats.Endpoints))
	if len(stats.Endpoints) > 0 {
		// Sort by first seen time
		type epInfo struct {
			id    string
			stats *EndpointStats
		}
		eps := make([]epInfo, 0, len(stats.Endpoints))
		for id, es := range stats.Endpoints {
			eps = append(eps, epInfo{id, es})
		}
		sort.Slice(eps, func(i, j int) bool {
			return eps[i].stats.FirstSeen.Before(eps[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, e := range eps {
			duration := e.stats.LastSeen.Sub(e.stats.FirstSeen).Round(time.Millisecond)
			shortID := e.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, e.stats.Events, duration)
			if e.stats.DeviceID != "" {
				fmt.Fprintf(w, "           Device: %s\n", e.stats.DeviceID)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
