package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"crowdpulse-api/internal/model"
)

type TopicStatsStore interface {
	CountByStatus(ctx context.Context, status model.TopicStatus) (int, error)
	RankBySubmissions(ctx context.Context, status model.TopicStatus) ([]model.TopicRanking, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type StatsService struct {
	topics      TopicStatsStore
	users       Counter
	submissions Counter
}

func NewStatsService(topics TopicStatsStore, users Counter, submissions Counter) *StatsService {
	return &StatsService{topics: topics, users: users, submissions: submissions}
}

// Overview runs the three counters concurrently and fails if any of them does.
func (s *StatsService) Overview(ctx context.Context) (model.StatsOverview, error) {
	var overview model.StatsOverview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.topics.CountByStatus(gctx, model.TopicOpen)
		overview.OpenTopics = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		overview.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.submissions.Count(gctx)
		overview.Submissions = n
		return err
	})

	if err := g.Wait(); err != nil {
		return model.StatsOverview{}, err
	}
	return overview, nil
}

func (s *StatsService) OpenTopics(ctx context.Context) (int, error) {
	return s.topics.CountByStatus(ctx, model.TopicOpen)
}

func (s *StatsService) Users(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func (s *StatsService) Submissions(ctx context.Context) (int, error) {
	return s.submissions.Count(ctx)
}

func (s *StatsService) Ranking(ctx context.Context) ([]model.TopicRanking, error) {
	return s.topics.RankBySubmissions(ctx, model.TopicOpen)
}
