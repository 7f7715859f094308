package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/globelconnect/esim-backend/api/responses"
	"github.com/globelconnect/esim-backend/api/validators"
	"github.com/globelconnect/esim-backend/internal/plans"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
	"github.com/globelconnect/esim-backend/pkg/logger"
)

const (
	maxFilterLength = 64
	maxPlanLimit    = 1000
)

type catalogReader interface {
	ReadAll() []plans.Plan
	Find(packageCode string) (plans.Plan, bool)
}

type planView struct {
	plans.Plan
	PriceFormatted string `json:"priceFormatted"`
}

type planFields planView

func newPlanView(p plans.Plan) planView {
	return planView{Plan: p, PriceFormatted: plans.FormatPrice(p.Price)}
}

// MarshalJSON emits vendor plans as the vendor listed them, plus
// priceFormatted. CSV plans use the Plan fields.
func (v planView) MarshalJSON() ([]byte, error) {
	if len(v.Raw) == 0 {
		return json.Marshal(planFields(v))
	}
	var record map[string]json.RawMessage
	if err := json.Unmarshal(v.Raw, &record); err != nil || record == nil {
		return json.Marshal(planFields(v))
	}
	formatted, err := json.Marshal(v.PriceFormatted)
	if err != nil {
		return nil, err
	}
	record["priceFormatted"] = formatted
	return json.Marshal(record)
}

// ListPlans returns the current catalog snapshot, optionally filtered by
// region and country (case-insensitive).
func ListPlans(catalog catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		region := validators.SanitizeString(query.Get("region"), maxFilterLength)
		country := validators.SanitizeString(query.Get("country"), maxFilterLength)
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxPlanLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]planView, 0)
		for _, p := range catalog.ReadAll() {
			if region != "" && !strings.EqualFold(p.Region, region) {
				continue
			}
			if country != "" && !coversCountry(p.Country, country) {
				continue
			}
			views = append(views, newPlanView(p))
			if limit > 0 && len(views) == limit {
				break
			}
		}
		responses.WriteSuccess(w, views)
	}
}

func PlanDetail(catalog catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "packageCode"))
		plan, ok := catalog.Find(code)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found"))
			return
		}
		responses.WriteSuccess(w, newPlanView(plan))
	}
}

// coversCountry matches a single country against a comma-separated list.
func coversCountry(list, country string) bool {
	for _, part := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(part), country) {
			return true
		}
	}
	return false
}
