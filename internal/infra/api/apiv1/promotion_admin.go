package apiv1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/usecase"
)

type createPromotionRequest struct {
	Code            string     `json:"code"`
	MaxUses         *int       `json:"max_uses,omitempty"`
	MaxUsesPerActor int        `json:"max_uses_per_actor,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	DurationDays    *int       `json:"duration_days,omitempty"`
}

type promotionResponse struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	Active          bool       `json:"active"`
	MaxUses         *int       `json:"max_uses"`
	UseCount        int        `json:"use_count"`
	MaxUsesPerActor int        `json:"max_uses_per_actor"`
	ExpiresAt       *time.Time `json:"expires_at"`
	DurationDays    *int       `json:"duration_days"`
}

func toPromotionResponse(pc *model.PromotionCode) promotionResponse {
	return promotionResponse{
		ID:              pc.ID,
		Code:            pc.Code,
		Active:          pc.Active,
		MaxUses:         pc.MaxUses,
		UseCount:        pc.UseCount,
		MaxUsesPerActor: pc.PerActorLimit(),
		ExpiresAt:       pc.ExpiresAt,
		DurationDays:    pc.DurationDays,
	}
}

func (s *Server) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var in createPromotionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	pc, err := s.uc.Promotions.Create(r.Context(), usecase.NewCode{
		Code:            in.Code,
		MaxUses:         in.MaxUses,
		MaxUsesPerActor: in.MaxUsesPerActor,
		ExpiresAt:       in.ExpiresAt,
		DurationDays:    in.DurationDays,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPromotionResponse(pc))
}

func (s *Server) handleDeactivatePromotion(w http.ResponseWriter, r *http.Request) {
	pc, err := s.uc.Promotions.Deactivate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromotionResponse(pc))
}
