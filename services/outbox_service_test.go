package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedOutbox(repo *fakeOutboxRepo, channel string, attempts int) uuid.UUID {
	e := models.NotificationOutbox{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		Type:      models.TypeOrderDelivered,
		Channel:   channel,
		Recipient: "jo@example.com",
		Subject:   "Order delivered",
		Body:      "<p>hi</p>",
		Status:    models.OutboxPending,
		Attempts:  attempts,
	}
	repo.entries = append(repo.entries, e)
	return e.ID
}

func TestOutboxRunOnce_MarksSent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, models.ChannelEmail, 0)
	email := &fakeEmail{}
	svc := services.NewOutboxService(repo, services.Channels{Email: email}, 3, zap.NewNop())

	sent, failed, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, failed)
	assert.Equal(t, models.OutboxSent, repo.entries[0].Status)
	assert.NotNil(t, repo.entries[0].SentAt)
	assert.Equal(t, 1, repo.entries[0].Attempts)
	require.Len(t, email.sent, 1)
}

func TestOutboxRunOnce_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, models.ChannelEmail, 1)
	email := &fakeEmail{err: errors.New("mailbox unavailable")}
	svc := services.NewOutboxService(repo, services.Channels{Email: email}, 3, zap.NewNop())

	_, failed, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	assert.Equal(t, models.OutboxPending, repo.entries[0].Status)
	assert.Equal(t, 2, repo.entries[0].Attempts)

	_, failed, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, models.OutboxFailed, repo.entries[0].Status)
	assert.Equal(t, "mailbox unavailable", repo.entries[0].ErrorMessage)
}

func TestOutboxRunOnce_SkipsUnconfiguredChannel(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, models.ChannelSMS, 0)
	svc := services.NewOutboxService(repo, services.Channels{Email: &fakeEmail{}}, 3, zap.NewNop())

	sent, failed, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent+failed)
	assert.Equal(t, 0, repo.entries[0].Attempts)
}

func TestOutboxRunOnce_UnconfiguredBacklogDoesNotStarveEmail(t *testing.T) {
	repo := &fakeOutboxRepo{}
	for i := 0; i < 60; i++ {
		seedOutbox(repo, models.ChannelSMS, 0)
	}
	emailID := seedOutbox(repo, models.ChannelEmail, 0)
	email := &fakeEmail{}
	svc := services.NewOutboxService(repo, services.Channels{Email: email}, 3, zap.NewNop())

	sent, _, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, email.sent, 1)

	for _, e := range repo.entries {
		if e.ID == emailID {
			assert.Equal(t, models.OutboxSent, e.Status)
		} else {
			assert.Equal(t, models.OutboxPending, e.Status)
			assert.Zero(t, e.Attempts)
		}
	}
}

func TestOutboxRunOnce_NoProvidersIsNoop(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, models.ChannelEmail, 0)
	svc := services.NewOutboxService(repo, services.Channels{}, 3, zap.NewNop())

	sent, failed, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent+failed)
	assert.Equal(t, models.OutboxPending, repo.entries[0].Status)
}

func TestOutboxList_ValidatesStatus(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, models.ChannelEmail, 0)
	svc := services.NewOutboxService(repo, services.Channels{}, 3, zap.NewNop())

	resp, err := svc.List(context.Background(), models.OutboxFilter{Status: models.OutboxPending, Page: 1, PageSize: 10})
	require.Nil(t, err)
	assert.Len(t, resp.Entries, 1)
	assert.Equal(t, int64(1), resp.Meta.Total)

	_, err = svc.List(context.Background(), models.OutboxFilter{Status: "bounced"})
	require.NotNil(t, err)
	assert.Equal(t, services.CodeInvalidRequest, err.Code)
}
