package report

import (
	"errors"
	"testing"
)

func TestMetricAggregate_PassRate(t *testing.T) {
	tests := []struct {
		name string
		row  MetricAggregate
		want float64
	}{
		{"all passed", MetricAggregate{Passed: 10}, 100.0},
		{"all failed", MetricAggregate{Failed: 10}, 0.0},
		{"half and half", MetricAggregate{Passed: 5, Failed: 5}, 50.0},
		{"errors excluded from denominator", MetricAggregate{Passed: 3, Failed: 1, Error: 96}, 75.0},
		{"nothing evaluated", MetricAggregate{}, 0.0},
		{"only errors", MetricAggregate{Error: 7}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.row.PassRate()
			if got != tt.want {
				t.Errorf("PassRate() = %v, want %v", got, tt.want)
			}
			if got != got { // NaN check
				t.Error("PassRate() returned NaN")
			}
		})
	}
}

func TestMetricAggregate_Total(t *testing.T) {
	row := MetricAggregate{Passed: 3, Failed: 2, Error: 1}
	if got := row.Total(); got != 6 {
		t.Errorf("Total() = %d, want 6", got)
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	cause := errors.New("database is locked")
	err := &StoreError{Op: "fetch", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("StoreError does not unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("StoreError has empty message")
	}
}

func TestHandlerError_Unwrap(t *testing.T) {
	err := &HandlerError{Batch: 3, Err: ErrStop}

	if !errors.Is(err, ErrStop) {
		t.Error("HandlerError does not unwrap to ErrStop")
	}
}
