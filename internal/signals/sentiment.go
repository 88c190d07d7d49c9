package signals

import (
	"context"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/socialfeed"
)

// FeedSentiment implements SentimentSource over the live social mention
// window. It never blocks on the network: the feed client fills the window
// in the background and this adapter only reads it.
type FeedSentiment struct {
	window *socialfeed.Window
}

// NewFeedSentiment creates a sentiment source backed by a mention window.
func NewFeedSentiment(window *socialfeed.Window) *FeedSentiment {
	return &FeedSentiment{window: window}
}

var _ SentimentSource = (*FeedSentiment)(nil)

// Sentiment summarizes recent mentions of the token. A token nobody talks
// about yields (nil, nil).
func (f *FeedSentiment) Sentiment(_ context.Context, address, symbol string) (*domain.SentimentSnapshot, error) {
	return f.window.Snapshot(address, symbol), nil
}
