package ranking

import (
	"sort"
	"time"
)

// Item is anything that can be ranked.
type Item interface {
	LikeCount() int64
	CreationTime() time.Time
	Key() string
}

// SortHot orders items by hot score, newest first on ties, then by key.
func SortHot[T Item](items []T, now time.Time) {
	scores := make(map[string]float64, len(items))
	for _, item := range items {
		scores[item.Key()] = HotScore(item.LikeCount(), item.CreationTime(), now)
	}
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := scores[items[i].Key()], scores[items[j].Key()]
		if si != sj {
			return si > sj
		}
		return newer(items[i], items[j])
	})
}

// SortRecent orders items newest first, then by key.
func SortRecent[T Item](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return newer(items[i], items[j])
	})
}

func newer(a, b Item) bool {
	ta, tb := a.CreationTime(), b.CreationTime()
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.Key() < b.Key()
}
