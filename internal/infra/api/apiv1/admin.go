package apiv1

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lineup-entitlements/internal/domain/model"
)

type revenueResponse struct {
	Since    time.Time `json:"since"`
	Currency string    `json:"currency"`
	Total    int64     `json:"total"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cur, err := s.uc.Settings.Get(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in model.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	out, err := s.uc.Settings.Update(r.Context(), &in)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInvalidateSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Settings.Invalidate(r.Context()); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRevenue sums captured payments; since is RFC 3339 and defaults to 30 days ago.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since := time.Now().UTC().AddDate(0, 0, -30)
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be RFC 3339")
			return
		}
		since = t
	}
	currency := strings.ToLower(strings.TrimSpace(q.Get("currency")))
	total, err := s.uc.Stats.Revenue(r.Context(), since, currency)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, revenueResponse{Since: since, Currency: currency, Total: total})
}
