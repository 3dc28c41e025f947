package handler

import (
	"net/http"

	"crowdpulse-api/internal/service"
)

type TopicResultHandler struct {
	service *service.TopicResultService
}

func NewTopicResultHandler(service *service.TopicResultService) *TopicResultHandler {
	return &TopicResultHandler{service: service}
}

func (h *TopicResultHandler) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved topic results", results, nil)
}

func (h *TopicResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	topicID, err := idParam(r, "topicId", "topic result not found")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Get(r.Context(), topicID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved topic result", result, nil)
}

func (h *TopicResultHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	topicID, err := idParam(r, "topicId", "topic not found")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Analyze(r.Context(), topicID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully analyzed topic", result, nil)
}
