package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/groups"
	"github.com/avollmer/marketpulse/internal/record"
)

type fakeStore struct {
	rows map[string][]record.Record
	err  error
}

func (f *fakeStore) EnsureSchema(context.Context) error { return nil }

func (f *fakeStore) Upsert(_ context.Context, table string, recs []record.Record) (int, error) {
	f.rows[table] = append(f.rows[table], recs...)
	return len(recs), f.err
}

func (f *fakeStore) CountForDay(_ context.Context, table, day string) (int, error) {
	n := 0
	for _, r := range f.rows[table] {
		if r.Day() == day {
			n++
		}
	}
	return n, f.err
}

func (f *fakeStore) Rows(_ context.Context, table string) ([]record.Record, error) {
	return f.rows[table], f.err
}

func (f *fakeStore) RowsForDay(_ context.Context, table, day string) ([]record.Record, error) {
	var out []record.Record
	for _, r := range f.rows[table] {
		if r.Day() == day {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeStore) DeduplicateAndCompact(context.Context, string) (int64, error) { return 0, f.err }

func (f *fakeStore) Close() {}

func day(s string) time.Time {
	t, err := time.Parse(record.DayFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestServer() (*Server, *fakeStore) {
	st := &fakeStore{rows: map[string][]record.Record{
		record.TableProjects: {
			{Date: day("2026-08-29"), Category: "Java", Num: 10, Href: "/c/java"},
			{Date: day("2026-08-30"), Category: "Java", Num: 12, Href: "/c/java"},
			{Date: day("2026-08-30"), Category: "SQL", Num: 6},
		},
		record.TableFreelances: {
			{Date: day("2026-08-30"), Category: "Java", Num: 6},
		},
	}}
	classifier := groups.NewClassifier([]groups.Group{
		{Name: "Development", Keywords: []string{"java"}},
		{Name: "Data", Keywords: []string{"sql"}},
	})
	return NewServer(st, classifier, 1, zap.NewNop()), st
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRows(t *testing.T) {
	s, _ := newTestServer()

	t.Run("all rows", func(t *testing.T) {
		rec := doRequest(t, s, "/v1/tables/projects/rows")
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []rowPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 3)
		require.Equal(t, "Java", rows[0].Category)
		require.Equal(t, "/c/java", rows[0].Href)
	})

	t.Run("filtered by day", func(t *testing.T) {
		rec := doRequest(t, s, "/v1/tables/projects/rows?date=2026-08-30")
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []rowPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 2)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := doRequest(t, s, "/v1/tables/projects/rows?date=yesterday")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown table", func(t *testing.T) {
		rec := doRequest(t, s, "/v1/tables/invoices/rows")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetGroups(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, "/v1/tables/projects/groups")
	require.Equal(t, http.StatusOK, rec.Code)

	var m matrixPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, []string{"2026-08-29", "2026-08-30"}, m.Dates)
	require.Equal(t, []string{"Development", "Data"}, m.Columns)
	require.Equal(t, [][]float64{{10, 0}, {12, 6}}, m.Values)
}

func TestGetGrowth(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, "/v1/tables/projects/growth")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []growthPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	byCat := map[string]growthPayload{}
	for _, g := range out {
		byCat[g.Category] = g
	}
	require.Equal(t, 20.0, byCat["Development"].Percent)
	// Data rises from zero: no finite percentage exists.
	require.True(t, byCat["Data"].Unbounded)
	require.Equal(t, "∞", byCat["Data"].Display)
}

func TestGetCorrelations(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, "/v1/tables/projects/correlations")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []correlationPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "Development", out[0].A)
	require.Equal(t, "Data", out[0].B)
	require.True(t, out[0].Defined)
}

func TestGetRatio(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(t, s, "/v1/ratio")
	require.Equal(t, http.StatusOK, rec.Code)

	var m matrixPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, []string{"2026-08-30"}, m.Dates)
	require.Equal(t, []string{"Java"}, m.Columns)
	require.Equal(t, [][]float64{{0.5}}, m.Values)
}
