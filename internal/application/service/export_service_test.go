package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/export"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sola = &entity.Event{
	ID:       7,
	Slug:     "sola24",
	Name:     "Sommerlager 2024",
	DateFrom: time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC),
}

type mockEventRepo struct {
	listBySlugsFunc func(ctx context.Context, slugs []string) ([]*entity.Event, error)
	listAllCalled   bool
}

func (m *mockEventRepo) ListBySlugs(ctx context.Context, slugs []string) ([]*entity.Event, error) {
	if m.listBySlugsFunc != nil {
		return m.listBySlugsFunc(ctx, slugs)
	}
	var out []*entity.Event
	for _, slug := range slugs {
		if slug == sola.Slug {
			out = append(out, sola)
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListAll(ctx context.Context) ([]*entity.Event, error) {
	m.listAllCalled = true
	return []*entity.Event{sola}, nil
}

type mockPositionRepo struct {
	positions []*entity.Position
	err       error
}

func (m *mockPositionRepo) ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int64, len(m.positions))
	for i, p := range m.positions {
		ids[i] = p.ID
	}
	return ids, nil
}

func (m *mockPositionRepo) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Position, error) {
	return m.positions, nil
}

type mockInvoiceRepo struct {
	invoices []*entity.Invoice
}

func (m *mockInvoiceRepo) ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error) {
	ids := make([]int64, len(m.invoices))
	for i, inv := range m.invoices {
		ids[i] = inv.ID
	}
	return ids, nil
}

func (m *mockInvoiceRepo) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Invoice, error) {
	return m.invoices, nil
}

type mockSnapshots struct {
	calls int
}

func (m *mockSnapshots) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type recordedSheet struct {
	title string
	rows  [][]any
}

// recordingWriter keeps rows in memory and writes a marker on Close
type recordingWriter struct {
	out     io.Writer
	sheets  []recordedSheet
	closed  bool
	aborted bool
}

func (r *recordingWriter) StartSheet(title string) error {
	r.sheets = append(r.sheets, recordedSheet{title: title})
	return nil
}

func (r *recordingWriter) WriteRow(row []any) error {
	cur := &r.sheets[len(r.sheets)-1]
	cur.rows = append(cur.rows, row)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	_, err := io.WriteString(r.out, "workbook")
	return err
}

func (r *recordingWriter) Abort() error {
	r.aborted = true
	return nil
}

type mockDeliverer struct {
	fileName string
	content  []byte
	err      error
}

func (m *mockDeliverer) Deliver(ctx context.Context, fileName string, content io.Reader) error {
	m.fileName = fileName
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.content = data
	return m.err
}

// memoryStore keeps committed files in a map
type memoryStore struct {
	files     map[string][]byte
	discarded int
}

type memoryFile struct {
	bytes.Buffer
	store *memoryStore
	name  string
}

func (f *memoryFile) Commit() error {
	f.store.files[f.name] = f.Bytes()
	return nil
}

func (f *memoryFile) Discard() error {
	f.store.discarded++
	return nil
}

func (m *memoryStore) Create(ctx context.Context, name string) (port.PendingFile, error) {
	return &memoryFile{store: m, name: name}, nil
}

func (m *memoryStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) Path(name string) string {
	return "exports/" + name
}

type fixture struct {
	service   *exportServiceImpl
	events    *mockEventRepo
	positions *mockPositionRepo
	snapshots *mockSnapshots
	store     *memoryStore
	writers   []*recordingWriter
	metrics   *metrics.Registry
}

func newFixture(t *testing.T, deliverer port.ExportDeliverer) *fixture {
	t.Helper()
	f := &fixture{
		events: &mockEventRepo{},
		positions: &mockPositionRepo{positions: []*entity.Position{
			{ID: 1, EventID: sola.ID, ItemName: "Teilnehmer*in", AttendeeName: entity.NameParts{FamilyName: "Huber", GivenName: "Anna"},
				Answers: entity.NewAnswerSet(entity.Answer{QuestionIdentifier: entity.QuestionAge, Value: "16"})},
			{ID: 2, EventID: sola.ID, ItemName: "Teamer*in", AttendeeName: entity.NameParts{FamilyName: "Maier", GivenName: "Ben"}},
		}},
		snapshots: &mockSnapshots{},
		store:     &memoryStore{files: make(map[string][]byte)},
		metrics:   metrics.NewRegistry(),
	}
	gross := entity.Cents(12000)
	invoices := &mockInvoiceRepo{invoices: []*entity.Invoice{
		{ID: 5, FullInvoiceNo: "SOLA-00001", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), InvoiceToName: "Eva Huber", TotalGross: &gross},
	}}

	factory := func(w io.Writer) (port.WorkbookWriter, error) {
		rw := &recordingWriter{out: w}
		f.writers = append(f.writers, rw)
		return rw, nil
	}

	svc := NewExportService(
		f.events, f.positions, invoices, f.snapshots,
		Writers{Workbook: factory, CSV: factory},
		f.store,
		deliverer,
		f.metrics,
		ExportConfig{},
		zap.NewNop(),
	).(*exportServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC) }
	f.service = svc
	return f
}

func TestExportService_ExportWorkbook(t *testing.T) {
	f := newFixture(t, nil)
	var buf bytes.Buffer

	result, err := f.service.ExportWorkbook(context.Background(), []string{"sola24"}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "bjr_sola24_20240801-120000.xlsx", result.FileName)
	assert.Equal(t, []string{"sola24"}, result.Events)
	assert.Equal(t, map[string]int{"aej": 2, "jbm": 2, "team": 2, "belege": 1}, result.Rows)
	assert.Equal(t, "workbook", buf.String())
	assert.Equal(t, 1, f.snapshots.calls)

	require.Len(t, f.writers, 1)
	w := f.writers[0]
	assert.True(t, w.closed)
	assert.False(t, w.aborted)

	titles := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		titles[i] = s.title
	}
	assert.Equal(t, []string{"AEJ", "JBM", "Teamer", "Belegliste"}, titles)
	assert.Equal(t, []any(export.PositionHeader(export.SheetAEJ)), w.sheets[0].rows[0])
	assert.Equal(t, []any{"Teilnehmer*in", "Huber", "Anna", "?", "?", "?", "????? ?????", "X", "", ""}, w.sheets[0].rows[1])
	assert.Equal(t, []any{"SOLA-00001", "02.05.2024", "Eva Huber", "", entity.Cents(12000), ""}, w.sheets[3].rows[1])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues(FormatXLSX, metrics.ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Rows.WithLabelValues("aej")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Rows.WithLabelValues("belege")))
}

func TestExportService_ResolveEvents(t *testing.T) {
	tests := []struct {
		name        string
		slugs       []string
		wantErr     error
		wantListAll bool
	}{
		{name: "all events when no slug given", slugs: nil, wantListAll: true},
		{name: "known slug", slugs: []string{"sola24"}},
		{name: "unknown slugs are skipped", slugs: []string{"sola24", "pfila"}},
		{name: "nothing found", slugs: []string{"pfila"}, wantErr: ErrNoEvents},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			result, err := f.service.ExportWorkbook(context.Background(), tt.slugs, io.Discard)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Empty(t, f.writers)
				assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues(FormatXLSX, metrics.ResultFailure)))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"sola24"}, result.Events)
			assert.Equal(t, tt.wantListAll, f.events.listAllCalled)
		})
	}
}

func TestExportService_ExportWorkbook_StorageError(t *testing.T) {
	f := newFixture(t, nil)
	f.positions.err = errors.New("connection reset")

	result, err := f.service.ExportWorkbook(context.Background(), []string{"sola24"}, io.Discard)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to export sheet aej")

	require.Len(t, f.writers, 1)
	assert.True(t, f.writers[0].aborted)
	assert.False(t, f.writers[0].closed)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Rows.WithLabelValues("aej")))
}

func TestExportService_ExportSheetCSV(t *testing.T) {
	t.Run("single sheet", func(t *testing.T) {
		f := newFixture(t, nil)

		result, err := f.service.ExportSheetCSV(context.Background(), []string{"sola24"}, "belege", io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "bjr_sola24_belege_20240801-120000.csv", result.FileName)
		assert.Equal(t, map[string]int{"belege": 1}, result.Rows)

		require.Len(t, f.writers, 1)
		require.Len(t, f.writers[0].sheets, 1)
		assert.Equal(t, "Belegliste", f.writers[0].sheets[0].title)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues(FormatCSV, metrics.ResultSuccess)))
	})

	t.Run("unknown sheet", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.service.ExportSheetCSV(context.Background(), []string{"sola24"}, "kasse", io.Discard)
		assert.ErrorIs(t, err, export.ErrUnknownSheet)
		assert.Empty(t, f.writers)
	})
}

func TestExportService_ExportAndDeliver(t *testing.T) {
	t.Run("delivery disabled", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.service.ExportAndDeliver(context.Background(), nil)
		assert.ErrorIs(t, err, ErrDeliveryDisabled)
		assert.Empty(t, f.writers)
	})

	t.Run("stores and delivers", func(t *testing.T) {
		deliverer := &mockDeliverer{}
		f := newFixture(t, deliverer)

		result, err := f.service.ExportAndDeliver(context.Background(), []string{"sola24"})
		require.NoError(t, err)

		assert.Equal(t, "exports/bjr_sola24_20240801-120000.xlsx", result.Path)
		assert.Equal(t, result.FileName, deliverer.fileName)
		assert.Equal(t, "workbook", string(deliverer.content))
		assert.Equal(t, []byte("workbook"), f.store.files[result.FileName])
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Deliveries.WithLabelValues(metrics.ResultSuccess)))
	})

	t.Run("delivery failure keeps the file", func(t *testing.T) {
		deliverer := &mockDeliverer{err: errors.New("lark unavailable")}
		f := newFixture(t, deliverer)

		result, err := f.service.ExportAndDeliver(context.Background(), []string{"sola24"})
		require.Error(t, err)
		require.NotNil(t, result)
		assert.Contains(t, f.store.files, result.FileName)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Deliveries.WithLabelValues(metrics.ResultFailure)))
	})

	t.Run("failed export is discarded", func(t *testing.T) {
		deliverer := &mockDeliverer{}
		f := newFixture(t, deliverer)
		f.positions.err = errors.New("connection reset")

		_, err := f.service.ExportAndDeliver(context.Background(), []string{"sola24"})
		require.Error(t, err)

		assert.Empty(t, f.store.files)
		assert.Equal(t, 1, f.store.discarded)
		assert.Empty(t, deliverer.fileName)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues(FormatXLSX, metrics.ResultFailure)))
	})
}
