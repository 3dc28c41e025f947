package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crowdpulse-api/internal/model"
)

const submissionColumns = `id::text, topic_id::text, COALESCE(author_id::text, ''), text, likes,
	submitted_at, created_at, updated_at`

type SubmissionRepository struct {
	db DBTX
}

func NewSubmissionRepository(db DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func scanSubmission(row rowScanner) (model.Submission, error) {
	var s model.Submission
	err := row.Scan(&s.ID, &s.TopicID, &s.AuthorID, &s.Text, &s.Likes,
		&s.SubmittedAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *SubmissionRepository) Create(ctx context.Context, s model.Submission) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO submissions (id, topic_id, author_id, text, likes, submitted_at, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)`,
		s.ID, s.TopicID, s.AuthorID, s.Text, s.Likes, s.SubmittedAt, s.CreatedAt, s.UpdatedAt)
	if hasPgCode(err, foreignKeyViolation) {
		return model.ErrTopicNotFound
	}
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) ListByTopic(ctx context.Context, topicID string) ([]model.Submission, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE topic_id = $1 ORDER BY submitted_at`, topicID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]model.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *SubmissionRepository) Like(ctx context.Context, id string) (model.Submission, error) {
	s, err := scanSubmission(r.db.QueryRow(ctx,
		`UPDATE submissions SET likes = likes + 1, updated_at = now()
		 WHERE id = $1 RETURNING `+submissionColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Submission{}, model.ErrSubmissionNotFound
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("like submission: %w", err)
	}
	return s, nil
}

func (r *SubmissionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}
