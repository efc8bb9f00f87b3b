package service

import (
	"context"
	"fmt"
	"log"

	"anoa.com/feedsync/internal/entity"
	notifRepo "anoa.com/feedsync/internal/modules/notification/repository"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/realtime"
	"github.com/google/uuid"
)

const notificationsTable = "notifications"

// Dispatcher is the store side of the notification push channel: every write
// is persisted first and then fanned out to the recipient's channel.
type Dispatcher interface {
	Notify(ctx context.Context, notification *entity.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type dispatcher struct {
	repo      notifRepo.NotificationRepository
	publisher realtime.Publisher
}

func NewDispatcher(repo notifRepo.NotificationRepository, publisher realtime.Publisher) Dispatcher {
	return &dispatcher{
		repo:      repo,
		publisher: publisher,
	}
}

func (d *dispatcher) Notify(ctx context.Context, notification *entity.Notification) error {
	// 1. Save to DB
	if err := d.repo.Create(ctx, notification); err != nil {
		return apperror.Remote(err)
	}

	// 2. Publish; the row is the source of truth so a failed publish is only logged
	d.publish(ctx, realtime.Insert, notification)
	return nil
}

func (d *dispatcher) List(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Notification, error) {
	notifications, err := d.repo.GetByUserID(ctx, userID, limit, 0)
	if err != nil {
		return nil, apperror.Remote(err)
	}
	return notifications, nil
}

func (d *dispatcher) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	matched, err := d.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return apperror.Remote(err)
	}
	if !matched {
		return fmt.Errorf("notification %s: %w", id, apperror.ErrNotFound)
	}

	notification, err := d.repo.FindByID(ctx, id)
	if err != nil {
		log.Printf("❌ reload notification %s after mark read: %v", id, err)
		return nil
	}
	if notification != nil {
		d.publish(ctx, realtime.Update, notification)
	}
	return nil
}

func (d *dispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	marked, err := d.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return apperror.Remote(err)
	}
	for i := range marked {
		d.publish(ctx, realtime.Update, &marked[i])
	}
	return nil
}

func (d *dispatcher) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := d.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Remote(err)
	}
	return count, nil
}

func (d *dispatcher) publish(ctx context.Context, eventType realtime.EventType, notification *entity.Notification) {
	if d.publisher == nil {
		return
	}
	event, err := realtime.NewEvent(eventType, notificationsTable, notification)
	if err != nil {
		log.Printf("❌ %v", err)
		return
	}
	channel := realtime.Channel(realtime.TopicNotifications, notification.UserID)
	if err := d.publisher.Publish(ctx, channel, event); err != nil {
		log.Printf("❌ publish notification %s on %s: %v", notification.ID, channel, err)
	}
}
