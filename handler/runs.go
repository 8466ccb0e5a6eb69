package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oljwatch/job-harvester/common/utils"
	"github.com/oljwatch/job-harvester/pipeline"
	"github.com/rs/zerolog/log"
)

type RunsHandler struct {
	lock   *pipeline.RunLock
	router *chi.Mux
}

func NewRunsHandler(lock *pipeline.RunLock) *RunsHandler {
	router := chi.NewRouter()

	h := &RunsHandler{
		lock:   lock,
		router: router,
	}

	router.Get("/latest", h.handleLatestRun)
	return h
}

func (h *RunsHandler) Router() *chi.Mux {
	return h.router
}

func (h *RunsHandler) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	stats, err := h.lock.LastRun(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read last run stats")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch run stats")
		return
	}
	if stats == nil {
		utils.WriteError(w, http.StatusNotFound, "No harvest run recorded yet")
		return
	}

	utils.WriteJSON(w, http.StatusOK, stats)
}
