package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/domain/rules"
	"github.com/rendydev404/beatly/internal/services/subscription"
)

var ErrValidation = errors.New("validation error")

type ListeningStore interface {
	RecordPlay(ctx context.Context, play model.Play) error
	Stats(ctx context.Context, userID string, now time.Time) (model.ListeningStats, error)
}

type SubscriptionReader interface {
	Current(ctx context.Context, userID string) subscription.Snapshot
}

// Service builds the profile view: identity, the current entitlement snapshot
// and aggregated listening stats, and records plays into the history.
type Service struct {
	listening     ListeningStore
	subscriptions SubscriptionReader
	log           *zap.Logger
	now           func() time.Time
}

func NewService(listening ListeningStore, subscriptions SubscriptionReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		listening:     listening,
		subscriptions: subscriptions,
		log:           log,
		now:           time.Now,
	}
}

type View struct {
	UserID       string
	Email        string
	Subscription subscription.Snapshot
	Stats        model.ListeningStats
}

func (s *Service) Profile(ctx context.Context, userID, email string) (View, error) {
	if strings.TrimSpace(userID) == "" {
		return View{}, ErrValidation
	}
	if s.listening == nil || s.subscriptions == nil {
		return View{}, fmt.Errorf("profile dependencies are not configured")
	}

	snapshot := s.subscriptions.Current(ctx, userID)

	stats, err := s.listening.Stats(ctx, userID, s.now())
	if err != nil {
		// Stats are decorative; the profile still renders without them.
		s.log.Debug("listening stats unavailable", zap.String("user_id", userID), zap.Error(err))
		stats = model.ListeningStats{}
	}
	stats.EstimatedHours = rules.EstimatedListeningHours(stats.TotalPlays)

	return View{
		UserID:       userID,
		Email:        email,
		Subscription: snapshot,
		Stats:        stats,
	}, nil
}

func (s *Service) RecordPlay(ctx context.Context, userID, trackID, trackName, artistName string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(trackID) == "" {
		return ErrValidation
	}
	if s.listening == nil {
		return fmt.Errorf("listening store is not configured")
	}

	if err := s.listening.RecordPlay(ctx, model.Play{
		UserID:     userID,
		TrackID:    trackID,
		TrackName:  trackName,
		ArtistName: artistName,
		PlayedAt:   s.now(),
	}); err != nil {
		return fmt.Errorf("record play: %w", err)
	}

	return nil
}
