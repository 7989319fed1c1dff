package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotInitialized is returned when an operation runs before Open
	// succeeded or after Close.
	ErrNotInitialized = errors.New("storage not initialized")

	// ErrExists is returned by Create when the telegram id is already present.
	ErrExists = errors.New("subscriber already exists")

	// ErrNotFound is returned when no row matches the telegram id.
	ErrNotFound = errors.New("subscriber not found")

	// ErrNoFields is returned by Update when the update carries no fields.
	ErrNoFields = errors.New("no fields to update")
)

// Config configures storage.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Subscriber is one opted-in Telegram user.
type Subscriber struct {
	TelegramID int64
	FirstName  string
	LastName   string
	JoinedAt   time.Time
	Subscribed bool
}

// SubscriberUpdate carries the optional fields of a partial update.
// Nil pointers mean "leave unchanged". Only these columns are updatable;
// the telegram id never changes.
type SubscriberUpdate struct {
	FirstName  *string
	LastName   *string
	Subscribed *bool
}

func (u SubscriberUpdate) isEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Subscribed == nil
}

// Store is the persistence API used by the bot.
type Store interface {
	ListAll(ctx context.Context) ([]Subscriber, error)
	Create(ctx context.Context, s Subscriber) (Subscriber, error)
	Update(ctx context.Context, telegramID int64, u SubscriberUpdate) (Subscriber, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (Subscriber, error)

	// WALCheckpoint compacts the write-ahead log. Safe to call at any time.
	WALCheckpoint(ctx context.Context) error

	Close() error
}
