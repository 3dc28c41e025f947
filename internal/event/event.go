package event

import "time"

type Type string

const (
	TypeTopicCreated      Type = "topic.created"
	TypeSubmissionCreated Type = "submission.created"
	TypeTopicAnalyzed     Type = "topic.analyzed"
	TypeTopicsOpened      Type = "topics.opened"
	TypeTopicsClosed      Type = "topics.closed"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ResourceID string    `json:"resourceId,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	ActorID    string    `json:"actorId,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
