package research

import (
	"errors"
	"strings"

	"trend-shorts-agent/internal/types"
)

var (
	// ErrEmptyTopics is returned by SelectTopic for an empty candidate list
	ErrEmptyTopics = errors.New("no topics to select from")
	errNoTopics    = errors.New("source returned no topics")
)

// SelectTopic returns the candidate whose title equals forceTitle ignoring
// case, or else the first candidate with the highest search volume.
func SelectTopic(topics []types.TrendTopic, forceTitle string) (types.TrendTopic, error) {
	if len(topics) == 0 {
		return types.TrendTopic{}, ErrEmptyTopics
	}
	if want := strings.TrimSpace(forceTitle); want != "" {
		for _, t := range topics {
			if strings.EqualFold(strings.TrimSpace(t.Title), want) {
				return t, nil
			}
		}
	}
	best := 0
	for i := 1; i < len(topics); i++ {
		if topics[i].SearchVolume > topics[best].SearchVolume {
			best = i
		}
	}
	return topics[best], nil
}
