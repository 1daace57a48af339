package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "stats-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("RecordOptimization", func(t *testing.T) {
		storage.RecordOptimization(25, 12.5)
		storage.RecordOptimization(15, 7.5)
		storage.RecordFailure()

		stats := storage.GetCurrentStats()
		if stats.Optimizations != 2 {
			t.Errorf("Expected 2 optimizations, got %d", stats.Optimizations)
		}
		if stats.Failures != 1 {
			t.Errorf("Expected 1 failure, got %d", stats.Failures)
		}
		if stats.TotalImprovement != 40 {
			t.Errorf("Expected total improvement 40, got %d", stats.TotalImprovement)
		}
		if avg := stats.AverageImprovement(); avg != 20 {
			t.Errorf("Expected average improvement 20, got %f", avg)
		}
		if avg := stats.AverageDurationMs(); avg != 10 {
			t.Errorf("Expected average duration 10ms, got %f", avg)
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		if err := storage.Flush(); err != nil {
			t.Fatalf("Failed to flush: %v", err)
		}

		storage2, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}

		stats := storage2.GetCurrentStats()
		if stats.Optimizations != 2 {
			t.Errorf("Expected 2 optimizations after reload, got %d", stats.Optimizations)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := time.Now().AddDate(0, -2, 0).Format("2006-01")
		storage.stats[oldMonth] = &MonthlyStats{
			Optimizations: 100,
			LastUpdated:   time.Now().AddDate(0, -2, 0),
		}

		storage.Cleanup()

		if _, exists := storage.stats[oldMonth]; exists {
			t.Error("Old stats should have been cleaned up")
		}
	})

	t.Run("FileSize", func(t *testing.T) {
		if err := storage.Flush(); err != nil {
			t.Fatalf("Failed to flush: %v", err)
		}

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}

		if info.Size() > 1024 {
			t.Errorf("File size too large: %d bytes", info.Size())
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					storage.RecordOptimization(1, 1)
					storage.GetCurrentStats()
				}
				done <- true
			}()
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		stats := storage.GetCurrentStats()
		if stats.Optimizations != 2+1000 {
			t.Errorf("Expected %d optimizations, got %d", 2+1000, stats.Optimizations)
		}
	})
}

func TestGetAllMonths(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	storage.stats["2025-01"] = &MonthlyStats{}
	storage.stats["2025-03"] = &MonthlyStats{}
	storage.stats["2025-02"] = &MonthlyStats{}

	months := storage.GetAllMonths()
	if len(months) != 3 {
		t.Fatalf("Expected 3 months, got %d", len(months))
	}
	if months[0] != "2025-03" || months[2] != "2025-01" {
		t.Errorf("Months not sorted newest first: %v", months)
	}
}
