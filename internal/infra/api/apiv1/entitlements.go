package apiv1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/infra/api"
)

type entitlementResponse struct {
	TargetKind      string     `json:"target_kind"`
	TargetID        string     `json:"target_id"`
	StoredStatus    string     `json:"stored_status"`
	EffectiveStatus string     `json:"effective_status"`
	ExpiresAt       *time.Time `json:"expires_at"`
	Entitled        bool       `json:"entitled"`
}

type quoteResponse struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

func targetFromPath(r *http.Request) (model.TargetRef, bool) {
	kind, err := model.ParseTargetKind(chi.URLParam(r, "kind"))
	if err != nil {
		return model.TargetRef{}, false
	}
	ref := model.TargetRef{Kind: kind, ID: chi.URLParam(r, "id")}
	return ref, ref.Validate() == nil
}

func (s *Server) handleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	ref, ok := targetFromPath(r)
	if !ok {
		writeBadRequest(w, "invalid target")
		return
	}
	v, err := s.uc.Entitlement.Get(r.Context(), ref)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entitlementResponse{
		TargetKind:      string(v.Target.Kind),
		TargetID:        v.Target.ID,
		StoredStatus:    string(v.StoredStatus),
		EffectiveStatus: string(v.EffectiveStatus),
		ExpiresAt:       v.ExpiresAt,
		Entitled:        v.Entitled,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ref, ok := targetFromPath(r)
	if !ok {
		writeBadRequest(w, "invalid target")
		return
	}
	actor, _ := api.ActorFrom(r.Context())
	q, err := s.uc.Checkout.Quote(r.Context(), actor.ID, ref)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Amount: q.Amount, Currency: q.Currency, Metadata: q.Metadata})
}
