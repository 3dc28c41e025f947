package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdpulse-api/internal/event"
	"crowdpulse-api/internal/model"
	"crowdpulse-api/pkg/apierror"
)

type TopicResultStore interface {
	List(ctx context.Context) ([]model.TopicResult, error)
	FindByTopicID(ctx context.Context, topicID string) (model.TopicResult, error)
	Upsert(ctx context.Context, tr model.TopicResult) (model.TopicResult, error)
}

// Analyzer turns a prompt into a written summary.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

type TopicResultService struct {
	results     TopicResultStore
	topics      TopicStore
	submissions SubmissionStore
	analyzer    Analyzer
	events      event.Bus
	now         func() time.Time
}

// NewTopicResultService builds the analysis service. A nil analyzer disables
// Analyze; events may be nil.
func NewTopicResultService(results TopicResultStore, topics TopicStore, submissions SubmissionStore, analyzer Analyzer, events event.Bus) *TopicResultService {
	return &TopicResultService{
		results:     results,
		topics:      topics,
		submissions: submissions,
		analyzer:    analyzer,
		events:      events,
		now:         time.Now,
	}
}

func (s *TopicResultService) List(ctx context.Context) ([]model.TopicResult, error) {
	return s.results.List(ctx)
}

func (s *TopicResultService) Get(ctx context.Context, topicID string) (model.TopicResult, error) {
	result, err := s.results.FindByTopicID(ctx, topicID)
	if errors.Is(err, model.ErrTopicResultNotFound) {
		return model.TopicResult{}, apierror.NotFound("topic result not found")
	}
	return result, err
}

// Analyze sends every submission of a topic to the analysis agent and stores
// the summary, replacing any earlier one.
func (s *TopicResultService) Analyze(ctx context.Context, topicID string) (model.TopicResult, error) {
	if s.analyzer == nil {
		return model.TopicResult{}, apierror.New("SERVICE_UNAVAILABLE", "analysis agent is not configured", http.StatusServiceUnavailable)
	}

	topic, err := s.topics.FindByID(ctx, topicID)
	if err != nil {
		return model.TopicResult{}, topicError(err)
	}

	submissions, err := s.submissions.ListByTopic(ctx, topic.ID)
	if err != nil {
		return model.TopicResult{}, err
	}
	if len(submissions) == 0 {
		return model.TopicResult{}, apierror.NotFound("no submissions found for this topic")
	}

	content, err := s.analyzer.Analyze(ctx, BuildPrompt(topic, submissions))
	if err != nil {
		slog.Error("topic analysis failed", "topic_id", topic.ID, "error", err)
		return model.TopicResult{}, apierror.BadGateway("analysis agent request failed")
	}

	now := s.now().UTC()
	result, err := s.results.Upsert(ctx, model.TopicResult{
		ID:        uuid.NewString(),
		TopicID:   topic.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.TopicResult{}, err
	}

	publish(s.events, event.Event{
		Type:       event.TypeTopicAnalyzed,
		ResourceID: topic.ID,
		Payload:    map[string]any{"submissions": len(submissions)},
	})
	return result, nil
}

// BuildPrompt renders a topic and its submissions as the agent prompt.
func BuildPrompt(topic model.Topic, submissions []model.Submission) string {
	lines := make([]string, 0, len(submissions))
	for i, sub := range submissions {
		lines = append(lines, fmt.Sprintf("%d. %s (%d likes)", i+1, sub.Text, sub.Likes))
	}

	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(topic.Title)
	b.WriteString("\n\nDescription: ")
	b.WriteString(topic.Description)
	b.WriteString("\n\nUser Submissions:\n")
	b.WriteString(strings.Join(lines, "\n\n"))
	b.WriteString("\n\nPlease analyze these submissions and provide a comprehensive summary of the crowd's opinions.")
	return b.String()
}
