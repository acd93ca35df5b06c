package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/eda/internal/metric"
	"github.com/JonMunkholm/eda/internal/table"
)

const cleanCSV = "age,score,city\n25,3,Oslo\n12,1,Bergen\n18,3,Oslo\n40,2,Tromsø\n"

const gappyCSV = "x,c\n1,a\n,b\n3,\n"

func newTestService(t *testing.T, cfg ServiceConfig) (*Service, string) {
	t.Helper()
	svc := NewService(cfg)
	id, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return svc, id
}

func TestService_UploadInitializesCleanFile(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t, ServiceConfig{})

	res, err := svc.Upload(ctx, id, "people.csv", strings.NewReader(cleanCSV))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !res.Initialized || res.Rows != 4 || res.Columns != 3 {
		t.Errorf("result = %+v, want initialized 4x3", res)
	}
	if res.Bytes != int64(len(cleanCSV)) {
		t.Errorf("Bytes = %d, want %d", res.Bytes, len(cleanCSV))
	}
	st, _ := svc.State(id)
	if !st.Initialized || st.HistoryLen != 1 {
		t.Errorf("state = %+v", st)
	}
	if _, pending, _ := svc.PendingReport(id); pending {
		t.Error("clean upload left a pending load")
	}
}

func TestService_UploadWithMissingValues(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t, ServiceConfig{})

	if _, err := svc.Upload(ctx, id, "first.csv", strings.NewReader(cleanCSV)); err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	res, err := svc.Upload(ctx, id, "gaps.csv", strings.NewReader(gappyCSV))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Initialized || res.Report.TotalMissing != 2 {
		t.Errorf("result = %+v, want pending with 2 missing", res)
	}

	// The previous dataset stays visible until the decision is made.
	cur, err := svc.Current(id)
	if err != nil || !cur.HasColumn("city") {
		t.Fatalf("Current = %v, %v; want the first dataset", cur, err)
	}

	rep, pending, err := svc.PendingReport(id)
	if err != nil || !pending || rep.TotalMissing != 2 {
		t.Fatalf("PendingReport = %+v, %v, %v", rep, pending, err)
	}

	if _, err := svc.ResolveMissing(ctx, id, NumericFillMean, CategoricalStrategy("bogus")); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("ResolveMissing with bad strategy: got %v, want ErrUnknownStrategy", err)
	}
	if _, pending, _ := svc.PendingReport(id); !pending {
		t.Fatal("failed resolve discarded the pending load")
	}

	st, err := svc.ResolveMissing(ctx, id, NumericFillMean, CategoricalDropRows)
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	if st.Rows != 2 || st.HistoryLen != 1 {
		t.Errorf("state = %+v, want 2 rows and a fresh history", st)
	}
	cur, _ = svc.Current(id)
	x, _ := cur.Column("x")
	if got := x.Floats(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("x = %v, want [1 2]", got)
	}

	if _, err := svc.ResolveMissing(ctx, id, NumericLeave, CategoricalLeave); !errors.Is(err, ErrNoPendingLoad) {
		t.Errorf("second ResolveMissing: got %v, want ErrNoPendingLoad", err)
	}
}

func TestService_UploadErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     ServiceConfig
		id      string
		body    string
		wantErr error
	}{
		{name: "unknown session", id: "nope", body: cleanCSV, wantErr: ErrSessionNotFound},
		{name: "file too large", cfg: ServiceConfig{MaxFileSize: 10}, body: cleanCSV, wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, id := newTestService(t, tt.cfg)
			if tt.id != "" {
				id = tt.id
			}
			_, err := svc.Upload(ctx, id, "f.csv", strings.NewReader(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("empty file", func(t *testing.T) {
		svc, id := newTestService(t, ServiceConfig{})
		_, err := svc.Upload(ctx, id, "empty.csv", strings.NewReader(""))
		var le *table.LoadError
		if !errors.As(err, &le) {
			t.Fatalf("got %v, want *table.LoadError", err)
		}
		entries, _ := svc.AuditLog(ctx, id, 10)
		if len(entries) != 1 || entries[0].Action != ActionLoadFailed {
			t.Errorf("audit = %+v, want one load_failed entry", entries)
		}
	})

	t.Run("nil reader", func(t *testing.T) {
		svc, id := newTestService(t, ServiceConfig{})
		if _, err := svc.Upload(ctx, id, "x.csv", nil); !errors.Is(err, ErrNoFile) {
			t.Errorf("got %v, want ErrNoFile", err)
		}
	})
}

func TestService_MaxSessions(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{MaxSessions: 1})
	first, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := svc.CreateSession(ctx); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("got %v, want ErrTooManySessions", err)
	}
	got, err := svc.EnsureSession(ctx, first)
	if err != nil || got != first {
		t.Errorf("EnsureSession(existing) = %q, %v; want %q", got, err, first)
	}
	if err := svc.CloseSession(first); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if err := svc.CloseSession(first); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second CloseSession: got %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.EnsureSession(ctx, first); err != nil {
		t.Errorf("EnsureSession after close: %v", err)
	}
}

func TestService_EvictIdle(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(ServiceConfig{IdleTimeout: time.Hour})
	svc.now = func() time.Time { return clock }

	stale, _ := svc.CreateSession(ctx)
	clock = clock.Add(50 * time.Minute)
	fresh, _ := svc.CreateSession(ctx)
	clock = clock.Add(20 * time.Minute)

	if n := svc.EvictIdle(ctx); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if _, err := svc.State(stale); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session still present: %v", err)
	}
	if _, err := svc.State(fresh); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}

	entries, err := svc.audit.List(ctx, AuditFilter{Action: ActionSessionExpired})
	if err != nil || len(entries) != 1 || entries[0].SessionID != stale {
		t.Errorf("expiry audit = %+v, %v", entries, err)
	}
}

func TestService_MutationsAndAudit(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t, ServiceConfig{})
	if _, err := svc.Upload(ctx, id, "people.csv", strings.NewReader(cleanCSV)); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, err := svc.ApplyFilterSort(ctx, id, FilterSpec{"age": {Min: ptr(100)}}, nil); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("got %v, want ErrEmptyResult", err)
	}
	if _, err := svc.ApplyFilterSort(ctx, id, FilterSpec{"age": {Max: ptr(30)}}, &SortSpec{Column: "age"}); err != nil {
		t.Fatalf("ApplyFilterSort: %v", err)
	}
	edit, err := svc.EditCell(ctx, id, CellEdit{Row: 0, Column: "city", Value: "Bodø"})
	if err != nil {
		t.Fatalf("EditCell: %v", err)
	}
	if !edit.Changed || edit.OldValue != "Bergen" || edit.NewValue != "Bodø" {
		t.Errorf("edit = %+v", edit)
	}
	if _, err := svc.DeleteColumn(ctx, id, "score"); err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	st, err := svc.Undo(ctx, id)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if st.Cursor != 2 || st.HistoryLen != 4 {
		t.Errorf("state after undo = %+v", st)
	}
	st, err = svc.ResetFilters(ctx, id)
	if err != nil {
		t.Fatalf("ResetFilters: %v", err)
	}
	if st.HistoryLen != 1 || st.Rows != 3 || len(st.Columns) != 2 {
		t.Errorf("state after reset = %+v, want the filtered rows without score", st)
	}

	entries, err := svc.AuditLog(ctx, id, 0)
	if err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	want := []AuditAction{ActionReset, ActionUndo, ActionDeleteColumn, ActionCellEdit, ActionFilter, ActionFilterRejected, ActionLoad}
	if len(entries) != len(want) {
		t.Fatalf("got %d audit entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Action != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Action, want[i])
		}
	}
}

func TestService_EvaluateMetricLeavesTableUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t, ServiceConfig{})
	if _, err := svc.Upload(ctx, id, "people.csv", strings.NewReader(cleanCSV)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	before, _ := svc.Current(id)

	_, err := svc.EvaluateMetric(ctx, id, "result = 1/0")
	var evalErr *metric.EvaluationError
	if !errors.As(err, &evalErr) || !errors.Is(err, metric.ErrDivisionByZero) {
		t.Fatalf("got %v, want division by zero evaluation error", err)
	}
	after, _ := svc.Current(id)
	if after != before {
		t.Error("metric evaluation changed the visible table")
	}

	res, err := svc.EvaluateMetric(ctx, id, "result = mean(df['age'])")
	if err != nil {
		t.Fatalf("EvaluateMetric: %v", err)
	}
	if res.Kind != metric.ResultScalar || res.Scalar != "23.75" {
		t.Errorf("result = %+v, want scalar 23.75", res)
	}

	entries, _ := svc.AuditLog(ctx, id, 2)
	if len(entries) != 2 || entries[0].Action != ActionMetric || entries[1].Action != ActionMetric {
		t.Fatalf("audit = %+v", entries)
	}
	if entries[0].Detail != string(metric.ResultScalar) {
		t.Errorf("detail = %q, want %q", entries[0].Detail, metric.ResultScalar)
	}
}

func TestService_NoDataset(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t, ServiceConfig{})

	if _, err := svc.Current(id); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Current: got %v, want ErrNoDataset", err)
	}
	if _, err := svc.Undo(ctx, id); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Undo: got %v, want ErrNoDataset", err)
	}
	if _, err := svc.EvaluateMetric(ctx, id, "result = 1"); !errors.Is(err, ErrNoDataset) {
		t.Errorf("EvaluateMetric: got %v, want ErrNoDataset", err)
	}
	if err := svc.Export(ctx, id, &bytes.Buffer{}); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Export: got %v, want ErrNoDataset", err)
	}
}

func TestService_Export(t *testing.T) {
	ctx := context.Background()
	svc, id := newTestService(t, ServiceConfig{})
	if _, err := svc.Upload(ctx, id, "people.csv", strings.NewReader(cleanCSV)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	var buf bytes.Buffer
	if err := svc.Export(ctx, id, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if buf.String() != cleanCSV {
		t.Errorf("export = %q, want %q", buf.String(), cleanCSV)
	}
}

func TestPaginate(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("n", []float64{1, 2, 3, 4, 5}),
		table.NewCategorical("s", []string{"a", "", "c", "d", "e"}, []bool{false, true, false, false, false}),
	)

	tests := []struct {
		name       string
		page, size int
		wantPage   int
		wantRows   int
		wantPages  int
	}{
		{name: "first page", page: 1, size: 2, wantPage: 1, wantRows: 2, wantPages: 3},
		{name: "last partial page", page: 3, size: 2, wantPage: 3, wantRows: 1, wantPages: 3},
		{name: "page past end clamps", page: 9, size: 2, wantPage: 3, wantRows: 1, wantPages: 3},
		{name: "page zero clamps", page: 0, size: 2, wantPage: 1, wantRows: 2, wantPages: 3},
		{name: "default size", page: 1, size: 0, wantPage: 1, wantRows: 5, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tbl, tt.page, tt.size)
			if got.Page != tt.wantPage || len(got.Rows) != tt.wantRows || got.TotalPages != tt.wantPages {
				t.Errorf("got page=%d rows=%d pages=%d, want %d, %d, %d",
					got.Page, len(got.Rows), got.TotalPages, tt.wantPage, tt.wantRows, tt.wantPages)
			}
			if got.TotalRows != 5 {
				t.Errorf("TotalRows = %d, want 5", got.TotalRows)
			}
		})
	}

	page := Paginate(tbl, 1, 2)
	if page.Rows[1][1] != nil {
		t.Errorf("missing cell = %v, want nil", page.Rows[1][1])
	}
	if page.Rows[0][0] != table.Float(1) {
		t.Errorf("numeric cell = %v, want Float(1)", page.Rows[0][0])
	}
}
