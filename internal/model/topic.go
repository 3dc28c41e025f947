package model

import "time"

type TopicStatus string

const (
	TopicScheduled TopicStatus = "scheduled"
	TopicOpen      TopicStatus = "open"
	TopicClosed    TopicStatus = "closed"
)

func (s TopicStatus) Valid() bool {
	switch s {
	case TopicScheduled, TopicOpen, TopicClosed:
		return true
	}
	return false
}

type Topic struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"shortDescription"`
	Description      string      `json:"description"`
	StartDate        time.Time   `json:"startDate"`
	EndDate          time.Time   `json:"endDate"`
	Status           TopicStatus `json:"status"`
	AuthorID         string      `json:"authorId"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// StatusAt is the status a topic spanning start..end has at now.
func StatusAt(start time.Time, end time.Time, now time.Time) TopicStatus {
	switch {
	case !end.After(now):
		return TopicClosed
	case start.After(now):
		return TopicScheduled
	default:
		return TopicOpen
	}
}

type TopicFilter struct {
	Status TopicStatus
}

type CreateTopicInput struct {
	Title            string
	ShortDescription string
	Description      string
	StartDate        time.Time
	EndDate          time.Time
	Status           TopicStatus
	AuthorID         string
}

type Submission struct {
	ID          string    `json:"id"`
	TopicID     string    `json:"topicId"`
	AuthorID    string    `json:"authorId"`
	Text        string    `json:"text"`
	Likes       int       `json:"likes"`
	SubmittedAt time.Time `json:"submittedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TopicResult struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
