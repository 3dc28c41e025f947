package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/model"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]model.User
	// createErr is returned by Create once, then cleared.
	createErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]model.User{}}
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memoryUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		err := m.createErr
		m.createErr = nil
		return err
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrUserAlreadyExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memoryUsers) UpdateRole(_ context.Context, id string, role auth.Role, updatedAt time.Time) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = updatedAt
	m.users[id] = u
	return u, nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id string, hash string, updatedAt time.Time) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = updatedAt
	m.users[id] = u
	return u, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memoryUsers) Count(ctx context.Context) (int, error) {
	users, _ := m.List(ctx)
	return len(users), nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: map[string]time.Time{}}
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, _ string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = expiresAt
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

type memoryTopics struct {
	mu          sync.Mutex
	topics      map[string]model.Topic
	submissions map[string]model.Submission
	order       []string
}

func newMemoryTopics() *memoryTopics {
	return &memoryTopics{topics: map[string]model.Topic{}, submissions: map[string]model.Submission{}}
}

func (m *memoryTopics) List(_ context.Context, filter model.TopicFilter) ([]model.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Topic{}
	for _, t := range m.topics {
		if filter.Status == "" || t.Status == filter.Status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memoryTopics) FindByID(_ context.Context, id string) (model.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.topics[id]
	if !ok {
		return model.Topic{}, model.ErrTopicNotFound
	}
	return t, nil
}

func (m *memoryTopics) Create(_ context.Context, t model.Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics[t.ID] = t
	return nil
}

func (m *memoryTopics) OpenScheduled(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.topics {
		if t.Status == model.TopicScheduled && !t.StartDate.After(now) && t.EndDate.After(now) {
			t.Status = model.TopicOpen
			m.topics[id] = t
			n++
		}
	}
	return n, nil
}

func (m *memoryTopics) CloseExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.topics {
		if t.Status != model.TopicClosed && !t.EndDate.After(now) {
			t.Status = model.TopicClosed
			m.topics[id] = t
			n++
		}
	}
	return n, nil
}

func (m *memoryTopics) CountByStatus(_ context.Context, status model.TopicStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.topics {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memoryTopics) RankBySubmissions(_ context.Context, status model.TopicStatus) ([]model.TopicRanking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[string]int{}
	for _, s := range m.submissions {
		counts[s.TopicID]++
	}

	out := []model.TopicRanking{}
	for _, t := range m.topics {
		if t.Status == status {
			out = append(out, model.TopicRanking{TopicID: t.ID, Title: t.Title, SubmissionCount: counts[t.ID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionCount > out[j].SubmissionCount })
	return out, nil
}

type memorySubmissions struct {
	topics *memoryTopics
}

func (m memorySubmissions) Create(_ context.Context, s model.Submission) error {
	m.topics.mu.Lock()
	defer m.topics.mu.Unlock()

	if _, ok := m.topics.topics[s.TopicID]; !ok {
		return model.ErrTopicNotFound
	}
	m.topics.submissions[s.ID] = s
	m.topics.order = append(m.topics.order, s.ID)
	return nil
}

func (m memorySubmissions) ListByTopic(_ context.Context, topicID string) ([]model.Submission, error) {
	m.topics.mu.Lock()
	defer m.topics.mu.Unlock()

	out := []model.Submission{}
	for _, id := range m.topics.order {
		if s := m.topics.submissions[id]; s.TopicID == topicID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m memorySubmissions) Like(_ context.Context, id string) (model.Submission, error) {
	m.topics.mu.Lock()
	defer m.topics.mu.Unlock()

	s, ok := m.topics.submissions[id]
	if !ok {
		return model.Submission{}, model.ErrSubmissionNotFound
	}
	s.Likes++
	m.topics.submissions[id] = s
	return s, nil
}

func (m memorySubmissions) Count(_ context.Context) (int, error) {
	m.topics.mu.Lock()
	defer m.topics.mu.Unlock()
	return len(m.topics.submissions), nil
}

type memoryResults struct {
	mu      sync.Mutex
	results map[string]model.TopicResult
}

func newMemoryResults() *memoryResults {
	return &memoryResults{results: map[string]model.TopicResult{}}
}

func (m *memoryResults) List(_ context.Context) ([]model.TopicResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.TopicResult{}
	for _, r := range m.results {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryResults) FindByTopicID(_ context.Context, topicID string) (model.TopicResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.results[topicID]
	if !ok {
		return model.TopicResult{}, model.ErrTopicResultNotFound
	}
	return r, nil
}

func (m *memoryResults) Upsert(_ context.Context, tr model.TopicResult) (model.TopicResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.results[tr.TopicID]; ok {
		existing.Content = tr.Content
		existing.UpdatedAt = tr.UpdatedAt
		m.results[tr.TopicID] = existing
		return existing, nil
	}
	m.results[tr.TopicID] = tr
	return tr, nil
}

type stubAnalyzer struct {
	prompt   string
	response string
	err      error
}

func (s *stubAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
