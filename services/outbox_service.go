package services

import (
	"context"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"go.uber.org/zap"
)

type OutboxResponse struct {
	Entries []models.NotificationOutbox `json:"entries"`
	Meta    OutboxMeta                  `json:"meta"`
}

type OutboxMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// OutboxService retries pending notifications and exposes the outbox for
// inspection.
type OutboxService struct {
	outbox      repository.OutboxRepository
	channels    Channels
	maxAttempts int
	batchSize   int
	logger      *zap.Logger
}

func NewOutboxService(outbox repository.OutboxRepository, channels Channels, maxAttempts int, logger *zap.Logger) *OutboxService {
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	return &OutboxService{
		outbox:      outbox,
		channels:    channels,
		maxAttempts: maxAttempts,
		batchSize:   50,
		logger:      logger,
	}
}

// Start runs the relay every interval until ctx is cancelled.
func (s *OutboxService) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("Outbox relay started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Outbox relay shutting down")
			return
		case <-ticker.C:
			if _, _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("Outbox relay pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce retries one batch of pending entries. Entries whose channel still
// has no provider are not fetched and stay pending.
func (s *OutboxService) RunOnce(ctx context.Context) (sent, failed int, err error) {
	channels := s.channels.ConfiguredChannels()
	if len(channels) == 0 {
		return 0, 0, nil
	}
	entries, err := s.outbox.FindPending(ctx, channels, s.batchSize)
	if err != nil {
		return 0, 0, err
	}

	for i := range entries {
		entry := &entries[i]
		entry.Attempts++
		_, sendErr := s.channels.Send(ctx, entry.Channel, entry.Recipient, entry.Subject, entry.Body)
		if sendErr == nil {
			now := time.Now()
			entry.Status = models.OutboxSent
			entry.SentAt = &now
			entry.ErrorMessage = ""
			sent++
		} else {
			entry.ErrorMessage = sendErr.Error()
			if entry.Attempts >= s.maxAttempts {
				entry.Status = models.OutboxFailed
				failed++
			}
			s.logger.Warn("Outbox retry failed",
				zap.String("outbox_id", entry.ID.String()),
				zap.String("order_id", entry.OrderID.String()),
				zap.Int("attempts", entry.Attempts),
				zap.Error(sendErr))
		}

		if err := s.outbox.Update(ctx, entry); err != nil {
			s.logger.Error("Failed to update outbox entry",
				zap.String("outbox_id", entry.ID.String()),
				zap.Error(err))
		}
	}

	if sent > 0 || failed > 0 {
		s.logger.Info("Outbox relay pass complete", zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return sent, failed, nil
}

func (s *OutboxService) List(ctx context.Context, filter models.OutboxFilter) (*OutboxResponse, *ServiceError) {
	switch filter.Status {
	case "", models.OutboxPending, models.OutboxSent, models.OutboxFailed:
	default:
		return nil, badRequest(CodeInvalidRequest, "Invalid outbox status: "+string(filter.Status))
	}

	entries, total, err := s.outbox.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list outbox", zap.Error(err))
		return nil, internal("Failed to list notification outbox", err)
	}
	return &OutboxResponse{
		Entries: entries,
		Meta: OutboxMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			Total:      total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}
