package handler

import (
	"net/http"
	"time"

	"crowdpulse-api/internal/model"
	"crowdpulse-api/internal/service"
	"crowdpulse-api/pkg/apierror"
)

type TopicHandler struct {
	service *service.TopicService
}

func NewTopicHandler(service *service.TopicService) *TopicHandler {
	return &TopicHandler{service: service}
}

func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "All topics.", topics, nil)
}

func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	topicID, err := idParam(r, "id", "topic not found")
	if err != nil {
		writeError(w, err)
		return
	}

	topic, err := h.service.Get(r.Context(), topicID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved topic", topic, nil)
}

func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(r)
	if !ok {
		writeError(w, apierror.Unauthorized("No logged user found"))
		return
	}

	var payload model.CreateTopicRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	// The validator has already checked both dates against this layout.
	start, _ := time.Parse(time.RFC3339, payload.StartDate)
	end, _ := time.Parse(time.RFC3339, payload.EndDate)

	topic, err := h.service.Create(r.Context(), model.CreateTopicInput{
		Title:            payload.Title,
		ShortDescription: payload.ShortDescription,
		Description:      payload.Description,
		StartDate:        start,
		EndDate:          end,
		Status:           model.TopicStatus(payload.Status),
		AuthorID:         identity.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Successfully created topic", topic, nil)
}

func (h *TopicHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(r)
	if !ok {
		writeError(w, apierror.Unauthorized("No logged user found"))
		return
	}

	topicID, err := idParam(r, "id", "topic not found")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.SubmissionRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	submission, err := h.service.Submit(r.Context(), topicID, identity.UserID, payload.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Successfully created submission", submission, nil)
}

func (h *TopicHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	topicID, err := idParam(r, "id", "topic not found")
	if err != nil {
		writeError(w, err)
		return
	}

	submissions, err := h.service.Submissions(r.Context(), topicID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved submissions", submissions, nil)
}

func (h *TopicHandler) Like(w http.ResponseWriter, r *http.Request) {
	submissionID, err := idParam(r, "id", "submission not found")
	if err != nil {
		writeError(w, err)
		return
	}

	submission, err := h.service.Like(r.Context(), submissionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully liked submission", submission, nil)
}
