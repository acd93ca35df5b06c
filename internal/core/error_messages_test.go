package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/eda/internal/chart"
	"github.com/JonMunkholm/eda/internal/metric"
	"github.com/JonMunkholm/eda/internal/stats"
	"github.com/JonMunkholm/eda/internal/table"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "no dataset", err: ErrNoDataset, wantCode: "DS001"},
		{name: "session not found", err: ErrSessionNotFound, wantCode: "SES001"},
		{name: "session cap", err: ErrTooManySessions, wantCode: "SES002"},
		{name: "nothing to undo", err: ErrNoHistory, wantCode: "HIS001"},
		{name: "column not found", err: &ColumnNotFoundError{Column: "x"}, wantCode: "COL001"},
		{name: "chart unknown column", err: fmt.Errorf("%w: %q", chart.ErrUnknownColumn, "x"), wantCode: "COL001"},
		{name: "empty filter result", err: ErrEmptyResult, wantCode: "FLT001"},
		{name: "unknown strategy", err: fmt.Errorf("%w: %q", ErrUnknownStrategy, "guess"), wantCode: "MIS001"},
		{name: "nothing pending", err: ErrNoPendingLoad, wantCode: "MIS002"},
		{name: "invalid cell", err: fmt.Errorf("%w: %q is not a number", table.ErrInvalidCell, "abc"), wantCode: "CEL001"},
		{name: "row out of range", err: table.ErrRowOutOfRange, wantCode: "CEL001"},
		{name: "too few columns", err: stats.ErrTooFewColumns, wantCode: "ANA001"},
		{name: "not numeric", err: chart.ErrNotNumeric, wantCode: "ANA002"},
		{name: "unknown chart", err: chart.ErrUnknownKind, wantCode: "ANA003"},
		{name: "unknown correlation", err: stats.ErrUnknownMethod, wantCode: "ANA003"},
		{name: "unknown aggregation", err: stats.ErrUnknownAgg, wantCode: "ANA003"},
		{name: "metric with column message", err: &metric.EvaluationError{Line: 1, Msg: `column not found: "x"`}, wantCode: "MET001"},
		{name: "file too large", err: ErrFileTooLarge, wantCode: "FILE001"},
		{name: "too many rows", err: &table.LoadError{Line: 11, Reason: "too many rows"}, wantCode: "FILE001"},
		{name: "invalid csv", err: &table.LoadError{Line: 3, Reason: "invalid csv", Err: errors.New("bare quote")}, wantCode: "FILE002"},
		{name: "no file", err: ErrNoFile, wantCode: "FILE004"},
		{name: "empty file", err: &table.LoadError{Reason: "empty file"}, wantCode: "FILE005"},
		{name: "busy", err: ErrTooManyUploads, wantCode: "UPL002"},
		{name: "cancelled", err: context.Canceled, wantCode: "UPL004"},
		{name: "timeout", err: context.DeadlineExceeded, wantCode: "UPL005"},
		{name: "rate limit", err: errors.New("rate limit exceeded"), wantCode: "RATE001"},
		{name: "case insensitive matching", err: errors.New("NOTHING TO UNDO"), wantCode: "HIS001"},
		{name: "unknown error returns default", err: errors.New("some random internal error"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v) code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Errorf("MapError(%v) has empty message", tt.err)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoHistory)

	expected := "Nothing to undo (Code: HIS001). You are already at the original dataset"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrEmptyResult, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumnNotFoundError_Is(t *testing.T) {
	err := fmt.Errorf("delete: %w", &ColumnNotFoundError{Column: "gone"})
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Error("ColumnNotFoundError should match table.ErrColumnNotFound")
	}
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) || cnf.Column != "gone" {
		t.Errorf("errors.As got %v, want column %q", cnf, "gone")
	}
}
