package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/quantifin/cashplan/pkg/config"
	"github.com/quantifin/cashplan/pkg/intake"
	"github.com/quantifin/cashplan/pkg/ledger"
	"github.com/quantifin/cashplan/pkg/models"
)

// Server holds the configuration and the ledger snapshot of the last
// successful upload. The snapshot is immutable; every report request
// re-runs the relevant pipeline stages from scratch, so there is no
// intermediate state to invalidate when parameters change.
type Server struct {
	cfg *config.Config
	log *logrus.Logger

	mu      sync.RWMutex
	batchID uuid.UUID
	records []models.LedgerRecord
}

func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	return &Server{cfg: cfg, log: log}
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ledger", s.uploadLedgerHandler).Methods("POST")
	r.HandleFunc("/reports/aging", s.agingHandler).Methods("GET")
	r.HandleFunc("/reports/risk", s.riskHandler).Methods("GET")
	r.HandleFunc("/reports/cashflow", s.cashflowHandler).Methods("GET")
	r.HandleFunc("/reports/plan", s.planHandler).Methods("GET")
	return r
}

func (s *Server) uploadLedgerHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20); err != nil {
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `A ledger file is required in the "file" field`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := intake.ParseFile(file, header.Filename)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not read %s: %v", header.Filename, err), http.StatusBadRequest)
		return
	}
	raw, err := intake.DecodeTable(rows)
	if err != nil {
		var schemaErr *intake.SchemaError
		if errors.As(err, &schemaErr) {
			http.Error(w, schemaErr.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	records, err := ledger.Normalize(raw)
	if err != nil {
		var dateErr *ledger.MalformedDateError
		if errors.As(err, &dateErr) {
			http.Error(w, "Invalid date in ledger: "+dateErr.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	batchID := uuid.New()
	s.mu.Lock()
	s.batchID = batchID
	s.records = records
	s.mu.Unlock()

	var start, end models.Date
	for _, rec := range records {
		if start.IsZero() || rec.ActualPaidDate.Before(start) {
			start = rec.ActualPaidDate
		}
		if end.IsZero() || rec.ActualPaidDate.After(end) {
			end = rec.ActualPaidDate
		}
	}

	s.log.WithFields(logrus.Fields{
		"batch_id": batchID,
		"records":  len(records),
		"file":     header.Filename,
	}).Info("ledger loaded")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"batch_id":   batchID,
		"records":    len(records),
		"start_date": start,
		"end_date":   end,
	})
}

func (s *Server) agingHandler(w http.ResponseWriter, r *http.Request) {
	records, ok := s.snapshot()
	if !ok {
		http.Error(w, "No ledger loaded", http.StatusConflict)
		return
	}
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ledger.AggregateAging(records, asOf))
}

func (s *Server) riskHandler(w http.ResponseWriter, r *http.Request) {
	records, ok := s.snapshot()
	if !ok {
		http.Error(w, "No ledger loaded", http.StatusConflict)
		return
	}
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ledger.RiskProfiles(records, asOf))
}

func (s *Server) cashflowHandler(w http.ResponseWriter, r *http.Request) {
	records, ok := s.snapshot()
	if !ok {
		http.Error(w, "No ledger loaded", http.StatusConflict)
		return
	}
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opening, err := decimalParam(r, "opening_balance", s.cfg.OpeningBalance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profiles := ledger.RiskProfiles(records, asOf)
	daily := ledger.BuildDailyCashflow(records, profiles, opening, asOf)

	if r.URL.Query().Get("from_today") == "true" {
		trimmed := daily[:0:0]
		for _, p := range daily {
			if !p.Date.Before(asOf) {
				trimmed = append(trimmed, p)
			}
		}
		daily = trimmed
	}
	writeJSON(w, http.StatusOK, daily)
}

func (s *Server) planHandler(w http.ResponseWriter, r *http.Request) {
	records, ok := s.snapshot()
	if !ok {
		http.Error(w, "No ledger loaded", http.StatusConflict)
		return
	}
	asOf, err := dateParam(r, "as_of")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opening, err := decimalParam(r, "opening_balance", s.cfg.OpeningBalance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	threshold, err := decimalParam(r, "threshold", s.cfg.Threshold)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if threshold.IsNegative() {
		http.Error(w, "threshold must not be negative", http.StatusBadRequest)
		return
	}

	profiles := ledger.RiskProfiles(records, asOf)
	daily := ledger.BuildDailyCashflow(records, profiles, opening, asOf)
	plan := ledger.Reschedule(daily, records, threshold, asOf)

	s.log.WithFields(logrus.Fields{
		"as_of":     asOf,
		"threshold": threshold,
		"deferrals": len(plan.Deferrals),
	}).Info("payment plan computed")

	writeJSON(w, http.StatusOK, plan)
}

// snapshot returns the current ledger snapshot, if one has been loaded.
func (s *Server) snapshot() ([]models.LedgerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.records != nil
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to the current
// wall-clock date. This is the only place "today" enters the system.
func dateParam(r *http.Request, name string) (models.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return models.Today(), nil
	}
	d, err := models.ParseDate(v)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func decimalParam(r *http.Request, name string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %q", name, v)
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	server := NewServer(cfg, logger)

	logger.Infof("Server starting on :%s", cfg.Port)
	logger.Fatal(http.ListenAndServe(":"+cfg.Port, server.router()))
}
