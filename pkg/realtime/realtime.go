// Package realtime is the push channel between the data service and viewer
// sessions. Delivery is at-least-once and unordered with respect to reads, so
// consumers must merge events by record id.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// TopicNotifications scopes a channel to one notification recipient.
const TopicNotifications = "user_notifications"

// Event is a row change on a relation.
type Event struct {
	Type   EventType       `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

func NewEvent(eventType EventType, table string, record any) (Event, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s record: %w", table, err)
	}
	return Event{Type: eventType, Table: table, Record: payload}, nil
}

// Decode unmarshals the record into dst.
func (e Event) Decode(dst any) error {
	return json.Unmarshal(e.Record, dst)
}

// Channel names the channel for a topic filtered to one user.
func Channel(topic string, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", topic, userID.String())
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	// Open starts a subscription. The caller owns the returned handle and must
	// Close it on every exit path.
	Open(ctx context.Context, channel string) (Subscription, error)
}

type Subscription interface {
	// Events is closed once the subscription is closed or the channel drops.
	Events() <-chan Event
	Close() error
}

// Broker publishes and subscribes.
type Broker interface {
	Publisher
	Subscriber
}
