package socialfeed

import (
	"strings"
	"sync"
	"time"

	"token-sentinel/internal/domain"
)

const (
	// defaultWindowAge is how long a mention stays in the window.
	defaultWindowAge = 6 * time.Hour

	// maxMentionsPerToken bounds memory per token under mention storms.
	maxMentionsPerToken = 500
)

// Window is a bounded rolling window of recent mentions, keyed by token
// address and by symbol so lookups work with either.
type Window struct {
	mu       sync.RWMutex
	byKey    map[string][]Mention
	maxAge   time.Duration
	maxCount int

	now func() time.Time
}

// NewWindow creates a rolling mention window with default bounds.
func NewWindow() *Window {
	return &Window{
		byKey:    make(map[string][]Mention),
		maxAge:   defaultWindowAge,
		maxCount: maxMentionsPerToken,
		now:      time.Now,
	}
}

// Add records a mention under both its address and symbol keys.
func (w *Window) Add(m Mention) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, key := range mentionKeys(m.TokenAddress, m.Symbol) {
		list := append(w.byKey[key], m)
		list = w.prune(list)
		if len(list) > w.maxCount {
			list = list[len(list)-w.maxCount:]
		}
		w.byKey[key] = list
	}
}

// Snapshot summarizes the current window for one token. Returns nil when the
// window holds no mentions for it, so the sentiment signal reads as absent
// rather than neutral.
func (w *Window) Snapshot(address, symbol string) *domain.SentimentSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	seen := make(map[Mention]bool)
	var mentions []Mention
	for _, key := range mentionKeys(address, symbol) {
		for _, m := range w.prune(w.byKey[key]) {
			if seen[m] {
				continue
			}
			seen[m] = true
			mentions = append(mentions, m)
		}
	}
	if len(mentions) == 0 {
		return nil
	}

	snap := &domain.SentimentSnapshot{Mentions: len(mentions)}
	for _, m := range mentions {
		if m.IsWarning() {
			snap.WarningMentions++
		} else if m.IsPositive() {
			snap.PositiveMentions++
		}
	}
	switch {
	case snap.WarningMentions > snap.PositiveMentions:
		snap.Direction = domain.SentimentBearish
	case snap.PositiveMentions > snap.WarningMentions:
		snap.Direction = domain.SentimentBullish
	default:
		snap.Direction = domain.SentimentNeutral
	}
	return snap
}

// Sweep drops expired mentions for all tokens. Called periodically by the
// feed client so idle tokens do not pin memory.
func (w *Window) Sweep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, list := range w.byKey {
		pruned := w.prune(list)
		if len(pruned) == 0 {
			delete(w.byKey, key)
			continue
		}
		w.byKey[key] = pruned
	}
}

// prune returns the suffix of list still inside the age window. The list is
// append-ordered, so the cutoff is a single scan from the front.
func (w *Window) prune(list []Mention) []Mention {
	cutoff := w.now().Add(-w.maxAge).Unix()
	i := 0
	for i < len(list) && list[i].PostedAt < cutoff {
		i++
	}
	return list[i:]
}

func mentionKeys(address, symbol string) []string {
	var keys []string
	if address != "" {
		keys = append(keys, "addr:"+strings.ToLower(address))
	}
	if symbol != "" {
		keys = append(keys, "sym:"+strings.ToUpper(symbol))
	}
	return keys
}
