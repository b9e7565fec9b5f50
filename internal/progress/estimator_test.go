package progress

import (
	"testing"
	"time"
)

func TestNewETAEstimator(t *testing.T) {
	estimator := NewETAEstimator("Test Operation", 10)

	if estimator.operation != "Test Operation" {
		t.Errorf("Expected operation 'Test Operation', got '%s'", estimator.operation)
	}

	if estimator.totalItems != 10 {
		t.Errorf("Expected totalItems 10, got %d", estimator.totalItems)
	}

	if estimator.itemsComplete != 0 {
		t.Errorf("Expected itemsComplete 0, got %d", estimator.itemsComplete)
	}

	if estimator.startTime.IsZero() {
		t.Error("Expected startTime to be set")
	}
}

func TestUpdateProgress(t *testing.T) {
	estimator := NewETAEstimator("Test", 10)

	estimator.UpdateProgress(5)
	if estimator.itemsComplete != 5 {
		t.Errorf("Expected itemsComplete 5, got %d", estimator.itemsComplete)
	}

	estimator.UpdateProgress(8)
	if estimator.itemsComplete != 8 {
		t.Errorf("Expected itemsComplete 8, got %d", estimator.itemsComplete)
	}
}

func TestGetProgress(t *testing.T) {
	estimator := NewETAEstimator("Test", 10)

	if progress := estimator.GetProgress(); progress != 0 {
		t.Errorf("Expected 0%%, got %.2f%%", progress)
	}

	estimator.UpdateProgress(5)
	if progress := estimator.GetProgress(); progress != 50.0 {
		t.Errorf("Expected 50%%, got %.2f%%", progress)
	}

	estimator.UpdateProgress(10)
	if progress := estimator.GetProgress(); progress != 100.0 {
		t.Errorf("Expected 100%%, got %.2f%%", progress)
	}

	zeroEstimator := NewETAEstimator("Test", 0)
	if progress := zeroEstimator.GetProgress(); progress != 0 {
		t.Errorf("Expected 0%% for zero totalItems, got %.2f%%", progress)
	}
}

func TestGetElapsed(t *testing.T) {
	estimator := NewETAEstimator("Test", 10)

	time.Sleep(100 * time.Millisecond)

	elapsed := estimator.GetElapsed()
	if elapsed < 100*time.Millisecond {
		t.Errorf("Expected elapsed time >= 100ms, got %v", elapsed)
	}
}

func TestFormatProgress(t *testing.T) {
	estimator := NewETAEstimator("Test", 13)

	if result := estimator.FormatProgress(); result != "0/13 (0%)" {
		t.Errorf("Expected '0/13 (0%%)', got '%s'", result)
	}

	estimator.UpdateProgress(5)
	if result := estimator.FormatProgress(); result != "5/13 (38%)" {
		t.Errorf("Expected '5/13 (38%%)', got '%s'", result)
	}

	estimator.UpdateProgress(13)
	if result := estimator.FormatProgress(); result != "13/13 (100%)" {
		t.Errorf("Expected '13/13 (100%%)', got '%s'", result)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "< 1s"},
		{5 * time.Second, "5s"},
		{65 * time.Second, "1m"},
		{125 * time.Second, "2m"},
		{3 * time.Minute, "3m"},
		{3*time.Minute + 3*time.Second, "3m"},
		{3*time.Minute + 10*time.Second, "3m 10s"},
		{90 * time.Minute, "1h 30m"},
		{120 * time.Minute, "2h"},
		{150 * time.Minute, "2h 30m"},
	}

	for _, tt := range tests {
		result := FormatDuration(tt.duration)
		if result != tt.expected {
			t.Errorf("FormatDuration(%v) = '%s', expected '%s'", tt.duration, result, tt.expected)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	estimator := NewETAEstimator("Test", 10)
	estimator.startTime = time.Now().Add(-45 * time.Second)

	result := estimator.FormatElapsed()
	if result != "45s" {
		t.Errorf("Expected '45s', got '%s'", result)
	}
}
