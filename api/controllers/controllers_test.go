package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/globelconnect/esim-backend/internal/plans"
	"github.com/globelconnect/esim-backend/pkg/config"
	"github.com/globelconnect/esim-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func seededStore() *plans.Store {
	gb5, gb1 := 5.0, 1.0
	days := 30
	store := plans.NewStore()
	store.ReplaceAll([]plans.Plan{
		{PackageCode: "DATA5", Name: "Europe 5GB", Region: "Europe", Country: "FR,DE,IT", DataGB: &gb5, ValidityDays: &days, Price: 15000, Status: "active"},
		{PackageCode: "ASIA1", Name: "Asia 1GB", Region: "Asia", Country: "JP", DataGB: &gb1, Price: 4500, Status: "active"},
		{PackageCode: "FR1", Name: "France 1GB", Region: "Europe", Country: "FR", Price: 2000, Status: "active"},
	})
	return store
}

func planRouter(store *plans.Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/plans", ListPlans(store, testLogger()))
	r.Get("/api/plans/{packageCode}", PlanDetail(store, testLogger()))
	return r
}

type listBody struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
}

func getList(t *testing.T, h http.Handler, path string) (int, listBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body listBody
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec.Code, body
}

func TestListPlansReturnsCatalogInOrder(t *testing.T) {
	status, body := getList(t, planRouter(seededStore()), "/api/plans")
	if status != http.StatusOK || !body.Success {
		t.Fatalf("unexpected status %d", status)
	}
	if len(body.Data) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(body.Data))
	}
	first := body.Data[0]
	if first["packageCode"] != "DATA5" || first["priceFormatted"] != "1.50" {
		t.Fatalf("unexpected first plan %v", first)
	}
	if body.Data[1]["validityDays"] != nil {
		t.Fatalf("expected null validityDays, got %v", body.Data[1]["validityDays"])
	}
}

func TestPlanDetailEmitsVendorRecord(t *testing.T) {
	plan, err := plans.FromRecord(json.RawMessage(`{"packageCode":"CKH491","name":"Asia 5GB","price":19900,"speed":"5G"}`))
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	store := plans.NewStore()
	store.ReplaceAll([]plans.Plan{plan})

	rec := httptest.NewRecorder()
	planRouter(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans/CKH491", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data["speed"] != "5G" {
		t.Fatalf("expected vendor-only field, got %v", body.Data)
	}
	if _, ok := body.Data["region"]; ok {
		t.Fatalf("expected no fields the vendor did not send, got %v", body.Data)
	}
	if body.Data["priceFormatted"] != plans.FormatPrice(19900) {
		t.Fatalf("unexpected priceFormatted %v", body.Data["priceFormatted"])
	}
}

func TestListPlansFilters(t *testing.T) {
	h := planRouter(seededStore())

	_, body := getList(t, h, "/api/plans?region=europe")
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 europe plans, got %d", len(body.Data))
	}
	_, body = getList(t, h, "/api/plans?country=fr")
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 plans covering FR, got %d", len(body.Data))
	}
	_, body = getList(t, h, "/api/plans?country=DE&region=Europe")
	if len(body.Data) != 1 || body.Data[0]["packageCode"] != "DATA5" {
		t.Fatalf("unexpected filtered data %v", body.Data)
	}
	_, body = getList(t, h, "/api/plans?limit=1")
	if len(body.Data) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(body.Data))
	}
	if status, _ := getList(t, h, "/api/plans?limit=abc"); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", status)
	}
}

func TestListPlansEmptyCatalogIsEmptyArray(t *testing.T) {
	rec := httptest.NewRecorder()
	planRouter(plans.NewStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"success\":true,\"data\":[]}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestPlanDetail(t *testing.T) {
	h := planRouter(seededStore())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans/ASIA1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans/NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), plans.NewStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the first sync, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), seededStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a loaded catalog, got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header, got %q", rec.Header().Get(envHeader))
	}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(&config.Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
