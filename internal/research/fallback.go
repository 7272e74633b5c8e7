package research

import "trend-shorts-agent/internal/types"

// FallbackTopics is used when every live source fails. A fresh slice is
// returned on each call.
func FallbackTopics() []types.TrendTopic {
	return []types.TrendTopic{
		{
			Title:        "Emerging AI Productivity Tools",
			EntityNames:  []string{"AI", "Productivity"},
			Summary:      "New AI tools are going viral for automating workflows across design, code, and marketing.",
			SearchVolume: 50000,
		},
		{
			Title:        "Crypto Market Momentum",
			EntityNames:  []string{"Bitcoin", "Ethereum"},
			Summary:      "Crypto prices spike as institutional investors increase positions amid ETF approvals.",
			SearchVolume: 42000,
		},
		{
			Title:        "Longevity Supplements Craze",
			EntityNames:  []string{"Longevity", "Health"},
			Summary:      "Biohackers and wellness influencers push longevity stacks promising anti-aging benefits.",
			SearchVolume: 31000,
		},
	}
}
