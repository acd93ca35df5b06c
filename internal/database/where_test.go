package database

import (
	"testing"
	"time"
)

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()

	if wb.argIndex != 1 {
		t.Errorf("expected argIndex to be 1, got %d", wb.argIndex)
	}
	whereClause, args := wb.Build()
	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilder_Add(t *testing.T) {
	tests := []struct {
		name       string
		pairs      [][2]string
		wantClause string
		wantArgs   int
	}{
		{name: "single", pairs: [][2]string{{"session_id", "s1"}}, wantClause: " WHERE session_id = $1", wantArgs: 1},
		{name: "multiple", pairs: [][2]string{{"session_id", "s1"}, {"action", "undo"}}, wantClause: " WHERE session_id = $1 AND action = $2", wantArgs: 2},
		{name: "empty value skipped", pairs: [][2]string{{"session_id", ""}, {"action", "undo"}}, wantClause: " WHERE action = $1", wantArgs: 1},
		{name: "all empty", pairs: [][2]string{{"session_id", ""}}, wantClause: "", wantArgs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			for _, p := range tt.pairs {
				wb.Add(p[0], p[1])
			}
			whereClause, args := wb.Build()
			if whereClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", whereClause, tt.wantClause)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilder_Since(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddSince("created_at", time.Time{})
	if clause, _ := wb.Build(); clause != "" {
		t.Errorf("zero time added a condition: %q", clause)
	}

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wb.AddSince("created_at", since)
	wb.AddBefore("created_at", since.Add(time.Hour))
	clause, args := wb.Build()
	if want := " WHERE created_at >= $1 AND created_at < $2"; clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if args[0] != since {
		t.Errorf("args[0] = %v, want %v", args[0], since)
	}
}

func TestWhereBuilder_AddTimestampRange(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddTimestampRange("created_at", "2024-01-01", "2024-12-31")

	whereClause, args := wb.Build()

	expectedClause := " WHERE created_at >= $1 AND created_at <= $2"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 2 || args[0] != "2024-01-01" || args[1] != "2024-12-31" {
		t.Errorf("expected args ['2024-01-01', '2024-12-31'], got %v", args)
	}
}

func TestWhereBuilder_NextArgIndex(t *testing.T) {
	wb := NewWhereBuilder()

	if wb.NextArgIndex() != 1 {
		t.Errorf("expected initial NextArgIndex to be 1, got %d", wb.NextArgIndex())
	}

	wb.Add("col1", "val1")
	if wb.NextArgIndex() != 2 {
		t.Errorf("expected NextArgIndex after 1 add to be 2, got %d", wb.NextArgIndex())
	}

	wb.AddTimestampRange("created_at", "start", "end")
	if wb.NextArgIndex() != 4 {
		t.Errorf("expected NextArgIndex after timestamp range to be 4, got %d", wb.NextArgIndex())
	}
}
