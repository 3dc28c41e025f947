package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crowdpulse-api/internal/model"
)

const topicResultColumns = `id::text, topic_id::text, content, created_at, updated_at`

type TopicResultRepository struct {
	db DBTX
}

func NewTopicResultRepository(db DBTX) *TopicResultRepository {
	return &TopicResultRepository{db: db}
}

func scanTopicResult(row rowScanner) (model.TopicResult, error) {
	var tr model.TopicResult
	err := row.Scan(&tr.ID, &tr.TopicID, &tr.Content, &tr.CreatedAt, &tr.UpdatedAt)
	return tr, err
}

func (r *TopicResultRepository) List(ctx context.Context) ([]model.TopicResult, error) {
	rows, err := r.db.Query(ctx, `SELECT `+topicResultColumns+` FROM topic_results ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list topic results: %w", err)
	}
	defer rows.Close()

	results := make([]model.TopicResult, 0)
	for rows.Next() {
		tr, err := scanTopicResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic result: %w", err)
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}

func (r *TopicResultRepository) FindByTopicID(ctx context.Context, topicID string) (model.TopicResult, error) {
	tr, err := scanTopicResult(r.db.QueryRow(ctx,
		`SELECT `+topicResultColumns+` FROM topic_results WHERE topic_id = $1`, topicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TopicResult{}, model.ErrTopicResultNotFound
	}
	if err != nil {
		return model.TopicResult{}, fmt.Errorf("find topic result: %w", err)
	}
	return tr, nil
}

// Upsert stores the analysis for a topic, replacing the content of any
// earlier result while keeping its id and creation time.
func (r *TopicResultRepository) Upsert(ctx context.Context, tr model.TopicResult) (model.TopicResult, error) {
	saved, err := scanTopicResult(r.db.QueryRow(ctx,
		`INSERT INTO topic_results (id, topic_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (topic_id) DO UPDATE
		 SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
		 RETURNING `+topicResultColumns,
		tr.ID, tr.TopicID, tr.Content, tr.CreatedAt, tr.UpdatedAt))
	if err != nil {
		return model.TopicResult{}, fmt.Errorf("upsert topic result: %w", err)
	}
	return saved, nil
}
