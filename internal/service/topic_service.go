package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdpulse-api/internal/event"
	"crowdpulse-api/internal/model"
	"crowdpulse-api/internal/util"
	"crowdpulse-api/pkg/apierror"
)

type TopicStore interface {
	List(ctx context.Context, filter model.TopicFilter) ([]model.Topic, error)
	FindByID(ctx context.Context, id string) (model.Topic, error)
	Create(ctx context.Context, t model.Topic) error
}

type SubmissionStore interface {
	Create(ctx context.Context, s model.Submission) error
	ListByTopic(ctx context.Context, topicID string) ([]model.Submission, error)
	Like(ctx context.Context, id string) (model.Submission, error)
}

type TopicService struct {
	topics      TopicStore
	submissions SubmissionStore
	events      event.Bus
	now         func() time.Time
}

// NewTopicService builds the topic service. events may be nil.
func NewTopicService(topics TopicStore, submissions SubmissionStore, events event.Bus) *TopicService {
	return &TopicService{topics: topics, submissions: submissions, events: events, now: time.Now}
}

func (s *TopicService) List(ctx context.Context, rawStatus string) ([]model.Topic, error) {
	status := model.TopicStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if status != "" && !status.Valid() {
		return nil, apierror.BadRequest("invalid topic status")
	}

	return s.topics.List(ctx, model.TopicFilter{Status: status})
}

func (s *TopicService) Get(ctx context.Context, id string) (model.Topic, error) {
	topic, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return model.Topic{}, topicError(err)
	}
	return topic, nil
}

// Create stores a new topic. Without an explicit status the topic starts as
// scheduled, open or closed depending on where now falls in its date range.
func (s *TopicService) Create(ctx context.Context, input model.CreateTopicInput) (model.Topic, error) {
	if !input.EndDate.After(input.StartDate) {
		return model.Topic{}, apierror.BadRequest("endDate must be after startDate")
	}

	now := s.now().UTC()
	status := input.Status
	if status == "" {
		status = model.StatusAt(input.StartDate, input.EndDate, now)
	}
	if !status.Valid() {
		return model.Topic{}, apierror.BadRequest("invalid topic status")
	}

	title := util.SanitizeLine(input.Title)
	shortDescription := util.SanitizeLine(input.ShortDescription)
	description := util.SanitizeText(input.Description)
	if title == "" || shortDescription == "" || description == "" {
		return model.Topic{}, apierror.BadRequest("title and descriptions cannot be empty")
	}

	topic := model.Topic{
		ID:               uuid.NewString(),
		Title:            title,
		ShortDescription: shortDescription,
		Description:      description,
		StartDate:        input.StartDate.UTC(),
		EndDate:          input.EndDate.UTC(),
		Status:           status,
		AuthorID:         input.AuthorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.topics.Create(ctx, topic); err != nil {
		return model.Topic{}, err
	}

	publish(s.events, event.Event{
		Type:       event.TypeTopicCreated,
		ResourceID: topic.ID,
		ActorID:    topic.AuthorID,
		Payload:    map[string]any{"title": topic.Title, "status": topic.Status},
	})
	return topic, nil
}

func (s *TopicService) Submit(ctx context.Context, topicID string, authorID string, text string) (model.Submission, error) {
	topic, err := s.topics.FindByID(ctx, topicID)
	if err != nil {
		return model.Submission{}, topicError(err)
	}
	if topic.Status != model.TopicOpen {
		return model.Submission{}, apierror.Conflict("topic is not open for submissions")
	}

	text = util.SanitizeText(text)
	if text == "" {
		return model.Submission{}, apierror.BadRequest("text cannot be empty")
	}

	now := s.now().UTC()
	submission := model.Submission{
		ID:          uuid.NewString(),
		TopicID:     topic.ID,
		AuthorID:    authorID,
		Text:        text,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.submissions.Create(ctx, submission); err != nil {
		return model.Submission{}, topicError(err)
	}

	publish(s.events, event.Event{
		Type:       event.TypeSubmissionCreated,
		ResourceID: submission.ID,
		ActorID:    authorID,
		Payload:    map[string]any{"topicId": topic.ID},
	})
	return submission, nil
}

func (s *TopicService) Submissions(ctx context.Context, topicID string) ([]model.Submission, error) {
	if _, err := s.topics.FindByID(ctx, topicID); err != nil {
		return nil, topicError(err)
	}
	return s.submissions.ListByTopic(ctx, topicID)
}

func (s *TopicService) Like(ctx context.Context, submissionID string) (model.Submission, error) {
	submission, err := s.submissions.Like(ctx, submissionID)
	if errors.Is(err, model.ErrSubmissionNotFound) {
		return model.Submission{}, apierror.NotFound("submission not found")
	}
	return submission, err
}

func topicError(err error) error {
	if errors.Is(err, model.ErrTopicNotFound) {
		return apierror.NotFound("topic not found")
	}
	return err
}

func publish(bus event.Bus, e event.Event) {
	if bus != nil {
		bus.Publish(e)
	}
}
