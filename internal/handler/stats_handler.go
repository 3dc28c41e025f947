package handler

import (
	"context"
	"net/http"

	"crowdpulse-api/internal/service"
)

type StatsHandler struct {
	service *service.StatsService
}

func NewStatsHandler(service *service.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved stats", overview, nil)
}

func (h *StatsHandler) OpenTopics(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, h.service.OpenTopics)
}

func (h *StatsHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, h.service.Users)
}

func (h *StatsHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, h.service.Submissions)
}

func (h *StatsHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.service.Ranking(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved topic ranking", ranking, nil)
}

func (h *StatsHandler) count(w http.ResponseWriter, r *http.Request, counter func(context.Context) (int, error)) {
	n, err := counter(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved count", map[string]int{"count": n}, nil)
}
