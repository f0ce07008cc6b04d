package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coinvo/funnel-api/internal/config"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/provider"
	"github.com/coinvo/funnel-api/internal/queue"
	"github.com/coinvo/funnel-api/internal/repository"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupClickAttributionTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AffiliateUser{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	container := &provider.Container{
		Config:               cfg,
		AffiliateUserService: service.NewAffiliateUserService(cfg, repository.NewAffiliateUserRepository(db)),
	}
	return NewConsumer(container), db
}

func newClickAttributionTask(t *testing.T, payload queue.ClickAttributionPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskClickAttribution, data)
}

func TestHandleClickAttributionStampsUser(t *testing.T) {
	consumer, db := setupClickAttributionTest(t)

	user := &models.AffiliateUser{UID: "bybit-1001", Platform: "bybit", SessionID: "session-1"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	task := newClickAttributionTask(t, queue.ClickAttributionPayload{
		TrackingLinkID: 42,
		Source:         "tiktok",
		SessionID:      "session-1",
		ClickedAt:      time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	})
	if err := consumer.handleClickAttribution(context.Background(), task); err != nil {
		t.Fatalf("handle click attribution failed: %v", err)
	}

	var reloaded models.AffiliateUser
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.TrackingLinkID == nil || *reloaded.TrackingLinkID != 42 {
		t.Fatalf("expected attribution stamped, got %v", reloaded.TrackingLinkID)
	}
	if reloaded.TrafficSource != "tiktok" {
		t.Fatalf("expected traffic source stamped, got %q", reloaded.TrafficSource)
	}
}

func TestHandleClickAttributionSkipsIncompletePayload(t *testing.T) {
	consumer, db := setupClickAttributionTest(t)

	user := &models.AffiliateUser{UID: "bybit-1001", Platform: "bybit", SessionID: "session-1"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	task := newClickAttributionTask(t, queue.ClickAttributionPayload{SessionID: "session-1"})
	if err := consumer.handleClickAttribution(context.Background(), task); err != nil {
		t.Fatalf("expected incomplete payload skipped, got %v", err)
	}

	var reloaded models.AffiliateUser
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.TrackingLinkID != nil {
		t.Fatalf("expected no attribution for incomplete payload")
	}
}

func TestHandleClickAttributionRejectsBadPayload(t *testing.T) {
	consumer, _ := setupClickAttributionTest(t)

	task := asynq.NewTask(queue.TaskClickAttribution, []byte("{not json"))
	if err := consumer.handleClickAttribution(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
