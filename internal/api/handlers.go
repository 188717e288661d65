package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avollmer/marketpulse/internal/analytics"
	"github.com/avollmer/marketpulse/internal/record"
)

type rowPayload struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Num      int    `json:"num"`
	Href     string `json:"href,omitempty"`
}

type matrixPayload struct {
	Dates   []string    `json:"dates"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

type growthPayload struct {
	Category  string  `json:"category"`
	FirstAvg  float64 `json:"first_avg"`
	LastAvg   float64 `json:"last_avg"`
	Percent   float64 `json:"percent"`
	Unbounded bool    `json:"unbounded"`
	Display   string  `json:"display"`
}

type correlationPayload struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Coefficient float64 `json:"coefficient"`
	Defined     bool    `json:"defined"`
}

func toMatrixPayload(m analytics.Matrix) matrixPayload {
	return matrixPayload{Dates: m.Dates, Columns: m.Columns, Values: m.Values}
}

// tableParam validates the {table} path segment against the known logical
// tables so arbitrary names never reach the store.
func tableParam(r *http.Request) (string, bool) {
	table := chi.URLParam(r, "table")
	for _, known := range record.Tables {
		if table == known {
			return table, true
		}
	}
	return "", false
}

func dayParam(r *http.Request) (string, bool, error) {
	day := r.URL.Query().Get("date")
	if day == "" {
		return "", false, nil
	}
	if _, err := time.Parse(record.DayFormat, day); err != nil {
		return "", false, err
	}
	return day, true, nil
}

func (s *Server) tableRows(w http.ResponseWriter, r *http.Request) ([]record.Record, string, bool) {
	table, ok := tableParam(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown table")
		return nil, "", false
	}
	day, hasDay, err := dayParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return nil, "", false
	}
	var recs []record.Record
	if hasDay {
		recs, err = s.store.RowsForDay(r.Context(), table, day)
	} else {
		recs, err = s.store.Rows(r.Context(), table)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return nil, "", false
	}
	return recs, table, true
}

func (s *Server) getRows(w http.ResponseWriter, r *http.Request) {
	recs, _, ok := s.tableRows(w, r)
	if !ok {
		return
	}
	out := make([]rowPayload, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rowPayload{Date: rec.Day(), Category: rec.Category, Num: rec.Num, Href: rec.Href})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getGroups(w http.ResponseWriter, r *http.Request) {
	recs, _, ok := s.tableRows(w, r)
	if !ok {
		return
	}
	rolled := analytics.GroupRollup(analytics.Pivot(recs), s.classifier)
	s.writeJSON(w, http.StatusOK, toMatrixPayload(rolled))
}

func (s *Server) getGrowth(w http.ResponseWriter, r *http.Request) {
	table, ok := tableParam(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown table")
		return
	}
	recs, err := s.store.Rows(r.Context(), table)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	m := analytics.GroupRollup(analytics.Pivot(recs), s.classifier)
	out := make([]growthPayload, 0, len(m.Columns))
	for _, col := range m.Columns {
		series, _ := m.Column(col)
		g := analytics.GrowthRate(series, s.growthWindow)
		out = append(out, growthPayload{
			Category:  col,
			FirstAvg:  g.FirstAvg,
			LastAvg:   g.LastAvg,
			Percent:   g.Percent,
			Unbounded: g.Unbounded,
			Display:   g.String(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCorrelations(w http.ResponseWriter, r *http.Request) {
	table, ok := tableParam(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown table")
		return
	}
	recs, err := s.store.Rows(r.Context(), table)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	pairs := analytics.CorrelationPairs(analytics.GroupRollup(analytics.Pivot(recs), s.classifier))
	out := make([]correlationPayload, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, correlationPayload{A: p.A, B: p.B, Coefficient: p.Coefficient, Defined: p.Defined})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// getRatio serves the supply-per-demand matrix across both tables.
func (s *Server) getRatio(w http.ResponseWriter, r *http.Request) {
	demand, err := s.store.Rows(r.Context(), record.TableProjects)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	supply, err := s.store.Rows(r.Context(), record.TableFreelances)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	m := analytics.RatioMatrix(analytics.Pivot(supply), analytics.Pivot(demand))
	s.writeJSON(w, http.StatusOK, toMatrixPayload(m))
}
