package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, event model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []model.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.OrderEvent(nil), p.events...)
}

var errPublishFailed = errors.New("broker unavailable")

func cartItemByPost(t *testing.T, view *CartView, postID uint) *model.CartItem {
	t.Helper()
	for i := range view.Cart.Items {
		if view.Cart.Items[i].PostID == postID {
			return &view.Cart.Items[i]
		}
	}
	t.Fatalf("post %d not in cart", postID)
	return nil
}
