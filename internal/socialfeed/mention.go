// Package socialfeed ingests a live social mention stream over WebSocket and
// keeps a bounded rolling window per token for sentiment snapshots.
package socialfeed

import "strings"

// Mention is one social post referencing a token.
type Mention struct {
	TokenAddress string `json:"tokenAddress"`
	Symbol       string `json:"symbol"`
	Author       string `json:"author"`
	Text         string `json:"text"`
	Followers    int    `json:"followers"`
	PostedAt     int64  `json:"postedAt"` // unix seconds
}

// warningTerms flag a mention as a community warning.
var warningTerms = []string{
	"rug", "rugged", "scam", "honeypot", "can't sell", "cant sell",
	"cannot sell", "dumped", "liquidity pulled", "exit scam", "stolen",
}

// positiveTerms flag a mention as corroborating interest. Deliberately
// narrow: hype spam matches none of these.
var positiveTerms = []string{
	"audited", "liquidity locked", "lp locked", "contract renounced",
	"ownership renounced", "team doxxed", "doxxed",
}

// IsWarning reports whether the mention text reads as a rug/scam warning.
func (m Mention) IsWarning() bool {
	return containsAny(m.Text, warningTerms)
}

// IsPositive reports whether the mention corroborates the token's
// legitimacy.
func (m Mention) IsPositive() bool {
	return !m.IsWarning() && containsAny(m.Text, positiveTerms)
}

func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
