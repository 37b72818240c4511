package rest

import (
	"encoding/json"
	"net/http"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

type PumpHandler struct {
	pumpService inbound.PumpService
	logger      outbound.Logger
}

type StartPumpRequest struct {
	// Duration of the run; zero selects the configured default. Whether
	// the unit is minutes or seconds is a controller configuration.
	Duration int64 `json:"duration"`
}

func NewPumpHandler(pumpService inbound.PumpService, logger outbound.Logger) *PumpHandler {
	return &PumpHandler{
		pumpService: pumpService,
		logger:      logger,
	}
}

func (h *PumpHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartPumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode start request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Duration < 0 {
		http.Error(w, "Duration must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.pumpService.Start(req.Duration); err != nil {
		switch err {
		case model.ErrPumpAlreadyRunning:
			http.Error(w, "Pump is already running", http.StatusConflict)
		case model.ErrDurationTooLarge:
			http.Error(w, "Duration exceeds the maximum allowed", http.StatusBadRequest)
		default:
			h.logger.Error("pump start failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.pumpService.Status())
}

func (h *PumpHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.pumpService.Stop(); err != nil {
		h.logger.Error("pump stop failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.pumpService.Status())
}

func (h *PumpHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.pumpService.Status())
}
