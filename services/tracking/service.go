package tracking

import (
	"context"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

type Orders interface {
	GetOrderByNumber(ctx context.Context, number, userID string) (*models.Order, error)
}

// Service resolves the caller's order before tracking it.
type Service struct {
	orders Orders
	feed   *Feed
	now    func() time.Time
}

func NewService(orders Orders, feed *Feed) *Service {
	return &Service{orders: orders, feed: feed, now: time.Now}
}

// Snapshot returns the current tracking state from the stored status.
func (s *Service) Snapshot(ctx context.Context, number, userID string) (*Update, error) {
	o, err := s.orders.GetOrderByNumber(ctx, number, userID)
	if err != nil {
		return nil, err
	}
	u := Snapshot(o, s.now())
	return &u, nil
}

// Open loads the order so transports can fail before they commit to a
// stream. The returned function runs the feed.
func (s *Service) Open(ctx context.Context, number, userID string) (func(ctx context.Context, sink Sink) error, error) {
	o, err := s.orders.GetOrderByNumber(ctx, number, userID)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, sink Sink) error {
		return s.feed.Run(ctx, o, sink)
	}, nil
}
