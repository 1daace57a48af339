package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats aggregates optimization activity for one calendar month.
type MonthlyStats struct {
	Optimizations    int       `json:"optimizations"`
	Failures         int       `json:"failures"`
	TotalImprovement int       `json:"total_improvement"`
	TotalDurationMs  float64   `json:"total_duration_ms"`
	LastUpdated      time.Time `json:"last_updated"`
}

// AverageImprovement is the mean score gain per successful optimization.
func (m MonthlyStats) AverageImprovement() float64 {
	if m.Optimizations == 0 {
		return 0
	}
	return float64(m.TotalImprovement) / float64(m.Optimizations)
}

// AverageDurationMs is the mean processing time per successful optimization.
func (m MonthlyStats) AverageDurationMs() float64 {
	if m.Optimizations == 0 {
		return 0
	}
	return m.TotalDurationMs / float64(m.Optimizations)
}

// Storage persists monthly optimization statistics to a JSON file.
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
}

// NewStorage creates a statistics store backed by dataDir/stats.json and
// starts the background writer.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes to a temporary file and renames it over the target so readers
// never observe a partial file.
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.save()
		case <-ticker.C:
			s.save()
		}
	}
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

// requestWrite signals the background writer; a full buffer means a write is
// already pending.
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

func (s *Storage) monthLocked(key string) *MonthlyStats {
	m, exists := s.stats[key]
	if !exists {
		m = &MonthlyStats{}
		s.stats[key] = m
	}
	return m
}

// RecordOptimization records one successful optimization run.
func (s *Storage) RecordOptimization(improvement int, durationMs float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.monthLocked(currentMonth())
	m.Optimizations++
	m.TotalImprovement += improvement
	m.TotalDurationMs += durationMs
	m.LastUpdated = time.Now()

	s.maybeRequestWriteLocked()
}

// RecordFailure records one failed optimization request.
func (s *Storage) RecordFailure() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.monthLocked(currentMonth())
	m.Failures++
	m.LastUpdated = time.Now()

	s.maybeRequestWriteLocked()
}

func (s *Storage) maybeRequestWriteLocked() {
	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// GetCurrentStats returns statistics for the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.stats[currentMonth()]; exists {
		return *m
	}
	return MonthlyStats{}
}

// GetMonthlyStats returns statistics for a specific "YYYY-MM" month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.stats[yearMonth]; exists {
		return *m, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months with statistics, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Cleanup drops everything except the current and previous month.
func (s *Storage) Cleanup() {
	now := time.Now()
	current := now.Format("2006-01")
	previous := now.AddDate(0, -1, 0).Format("2006-01")

	s.mutex.Lock()
	for key := range s.stats {
		if key != current && key != previous {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// Flush writes the current state to disk synchronously.
func (s *Storage) Flush() error {
	return s.save()
}
