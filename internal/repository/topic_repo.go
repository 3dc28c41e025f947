package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"crowdpulse-api/internal/model"
)

const topicColumns = `id::text, title, short_description, description, start_date, end_date,
	status, COALESCE(author_id::text, ''), created_at, updated_at`

type TopicRepository struct {
	db DBTX
}

func NewTopicRepository(db DBTX) *TopicRepository {
	return &TopicRepository{db: db}
}

func scanTopic(row rowScanner) (model.Topic, error) {
	var t model.Topic
	var status string
	if err := row.Scan(&t.ID, &t.Title, &t.ShortDescription, &t.Description,
		&t.StartDate, &t.EndDate, &status, &t.AuthorID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Topic{}, err
	}
	t.Status = model.TopicStatus(status)
	return t, nil
}

func (r *TopicRepository) List(ctx context.Context, filter model.TopicFilter) ([]model.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics`
	args := make([]any, 0, 1)
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]model.Topic, 0)
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (r *TopicRepository) FindByID(ctx context.Context, id string) (model.Topic, error) {
	t, err := scanTopic(r.db.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Topic{}, model.ErrTopicNotFound
	}
	if err != nil {
		return model.Topic{}, fmt.Errorf("find topic: %w", err)
	}
	return t, nil
}

func (r *TopicRepository) Create(ctx context.Context, t model.Topic) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO topics (id, title, short_description, description, start_date, end_date,
		                     status, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9, $10)`,
		t.ID, t.Title, t.ShortDescription, t.Description, t.StartDate, t.EndDate,
		string(t.Status), t.AuthorID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// OpenScheduled moves scheduled topics whose start date has passed to open.
func (r *TopicRepository) OpenScheduled(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE topics SET status = 'open', updated_at = $1
		 WHERE status = 'scheduled' AND start_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("open scheduled topics: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CloseExpired moves open topics whose end date has passed to closed.
func (r *TopicRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE topics SET status = 'closed', updated_at = $1
		 WHERE status = 'open' AND end_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("close expired topics: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TopicRepository) CountByStatus(ctx context.Context, status model.TopicStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM topics WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return count, nil
}

// RankBySubmissions lists topics with the given status ordered by how many
// submissions they received, most first.
func (r *TopicRepository) RankBySubmissions(ctx context.Context, status model.TopicStatus) ([]model.TopicRanking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id::text, t.title, COUNT(s.id)::int AS submission_count
		 FROM topics t
		 LEFT JOIN submissions s ON s.topic_id = t.id
		 WHERE t.status = $1
		 GROUP BY t.id, t.title
		 ORDER BY submission_count DESC, t.title`, string(status))
	if err != nil {
		return nil, fmt.Errorf("rank topics: %w", err)
	}
	defer rows.Close()

	ranking := make([]model.TopicRanking, 0)
	for rows.Next() {
		var item model.TopicRanking
		if err := rows.Scan(&item.TopicID, &item.Title, &item.SubmissionCount); err != nil {
			return nil, fmt.Errorf("scan topic ranking: %w", err)
		}
		ranking = append(ranking, item)
	}
	return ranking, rows.Err()
}
