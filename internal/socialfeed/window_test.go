package socialfeed

import (
	"fmt"
	"testing"
	"time"

	"token-sentinel/internal/domain"
)

func testWindow(now time.Time) *Window {
	w := NewWindow()
	w.now = func() time.Time { return now }
	return w
}

func TestWindowSnapshotEmpty(t *testing.T) {
	w := testWindow(time.Unix(1_700_000_000, 0))
	if snap := w.Snapshot("0xtoken", "TKN"); snap != nil {
		t.Errorf("expected nil snapshot for unknown token, got %+v", snap)
	}
}

func TestWindowSnapshotDirection(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWindow(now)

	add := func(text string) {
		w.Add(Mention{
			TokenAddress: "0xToken",
			Symbol:       "TKN",
			Text:         text,
			PostedAt:     now.Unix(),
		})
	}
	add("this one is rugged, liquidity pulled")
	add("total scam, can't sell")
	add("lp locked and team doxxed")
	add("gm")

	snap := w.Snapshot("0xtoken", "tkn")
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.Mentions != 4 {
		t.Errorf("expected 4 mentions, got %d", snap.Mentions)
	}
	if snap.WarningMentions != 2 {
		t.Errorf("expected 2 warnings, got %d", snap.WarningMentions)
	}
	if snap.PositiveMentions != 1 {
		t.Errorf("expected 1 positive, got %d", snap.PositiveMentions)
	}
	if snap.Direction != domain.SentimentBearish {
		t.Errorf("expected bearish, got %s", snap.Direction)
	}
}

func TestWindowDeduplicatesAcrossKeys(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWindow(now)

	// One mention carries both address and symbol; a snapshot querying by
	// both must count it once.
	w.Add(Mention{
		TokenAddress: "0xtoken",
		Symbol:       "TKN",
		Text:         "audited",
		PostedAt:     now.Unix(),
	})

	snap := w.Snapshot("0xtoken", "TKN")
	if snap == nil || snap.Mentions != 1 {
		t.Fatalf("expected 1 deduplicated mention, got %+v", snap)
	}
}

func TestWindowExpiresOldMentions(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWindow(now)

	w.Add(Mention{
		TokenAddress: "0xtoken",
		Text:         "rug",
		PostedAt:     now.Add(-7 * time.Hour).Unix(),
	})
	w.Add(Mention{
		TokenAddress: "0xtoken",
		Text:         "fresh mention",
		PostedAt:     now.Unix(),
	})

	snap := w.Snapshot("0xtoken", "")
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.Mentions != 1 {
		t.Errorf("expected only the fresh mention, got %d", snap.Mentions)
	}
	if snap.WarningMentions != 0 {
		t.Errorf("expired warning must not count, got %d warnings", snap.WarningMentions)
	}
}

func TestWindowBoundsMentionCount(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWindow(now)

	for i := 0; i < maxMentionsPerToken+100; i++ {
		w.Add(Mention{
			TokenAddress: "0xtoken",
			Author:       fmt.Sprintf("user%d", i),
			Text:         "spam",
			PostedAt:     now.Unix(),
		})
	}

	snap := w.Snapshot("0xtoken", "")
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.Mentions != maxMentionsPerToken {
		t.Errorf("expected window capped at %d, got %d", maxMentionsPerToken, snap.Mentions)
	}
}

func TestWindowSweepDropsIdleTokens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWindow(now)

	w.Add(Mention{
		TokenAddress: "0xold",
		Text:         "hello",
		PostedAt:     now.Add(-8 * time.Hour).Unix(),
	})
	w.Add(Mention{
		TokenAddress: "0xfresh",
		Text:         "hello",
		PostedAt:     now.Unix(),
	})

	w.Sweep()

	w.mu.RLock()
	defer w.mu.RUnlock()
	if _, ok := w.byKey["addr:0xold"]; ok {
		t.Error("expected idle token swept")
	}
	if _, ok := w.byKey["addr:0xfresh"]; !ok {
		t.Error("expected fresh token kept")
	}
}

func TestMentionClassification(t *testing.T) {
	cases := []struct {
		text     string
		warning  bool
		positive bool
	}{
		{"this is a honeypot, stay away", true, false},
		{"liquidity locked for 1 year", false, true},
		{"ownership renounced and rugged anyway", true, false}, // warning wins
		{"to the moon", false, false},
	}
	for _, tc := range cases {
		m := Mention{Text: tc.text}
		if m.IsWarning() != tc.warning {
			t.Errorf("IsWarning(%q): expected %v", tc.text, tc.warning)
		}
		if m.IsPositive() != tc.positive {
			t.Errorf("IsPositive(%q): expected %v", tc.text, tc.positive)
		}
	}
}
