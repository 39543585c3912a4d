package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rendydev404/beatly/internal/domain/model"
)

type ListeningRepo struct {
	pool *pgxpool.Pool
}

func NewListeningRepo(pool *pgxpool.Pool) *ListeningRepo {
	return &ListeningRepo{pool: pool}
}

func (r *ListeningRepo) RecordPlay(ctx context.Context, play model.Play) error {
	if strings.TrimSpace(play.UserID) == "" || strings.TrimSpace(play.TrackID) == "" {
		return fmt.Errorf("invalid record play payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if play.PlayedAt.IsZero() {
		play.PlayedAt = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO listening_history (
	user_id,
	track_id,
	track_name,
	artist_name,
	played_at
) VALUES ($1, $2, $3, $4, $5)
`, play.UserID, play.TrackID, play.TrackName, play.ArtistName, play.PlayedAt.UTC()); err != nil {
		return fmt.Errorf("record play: %w", err)
	}

	return nil
}

// Stats aggregates the listening history in SQL rather than loading rows into
// the application; the top artist comes from a grouped count.
func (r *ListeningRepo) Stats(ctx context.Context, userID string, now time.Time) (model.ListeningStats, error) {
	if strings.TrimSpace(userID) == "" {
		return model.ListeningStats{}, fmt.Errorf("user id is required")
	}
	if r.pool == nil {
		return model.ListeningStats{}, fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	utc := now.UTC()
	todayStart := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := utc.AddDate(0, 0, -7)

	var stats model.ListeningStats
	err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COUNT(DISTINCT artist_name),
	COUNT(*) FILTER (WHERE played_at >= $2),
	COUNT(*) FILTER (WHERE played_at >= $3)
FROM listening_history
WHERE user_id = $1
`, userID, todayStart, weekStart).Scan(
		&stats.TotalPlays,
		&stats.UniqueArtists,
		&stats.TodayPlays,
		&stats.WeekPlays,
	)
	if err != nil {
		return model.ListeningStats{}, fmt.Errorf("aggregate listening stats: %w", err)
	}

	var top model.TopArtist
	err = r.pool.QueryRow(ctx, `
SELECT artist_name, COUNT(*)
FROM listening_history
WHERE user_id = $1 AND artist_name <> ''
GROUP BY artist_name
ORDER BY COUNT(*) DESC, artist_name
LIMIT 1
`, userID).Scan(&top.Name, &top.Count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return model.ListeningStats{}, fmt.Errorf("find top artist: %w", err)
	}
	if err == nil {
		stats.TopArtist = &top
	}

	return stats, nil
}
