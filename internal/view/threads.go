package view

import (
	"cmp"
	"slices"
	"time"

	"github.com/nhle/mailbox-sync/internal/model"
)

// Bucket is a chronological thread group.
type Bucket string

const (
	Today     Bucket = "Today"
	Yesterday Bucket = "Yesterday"
	ThisWeek  Bucket = "This Week"
	LastWeek  Bucket = "Last Week"
	ThisMonth Bucket = "This Month"
	Older     Bucket = "Older"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Today, Yesterday, ThisWeek, LastWeek, ThisMonth, Older}

// ThreadSection is one chronological group of threads.
type ThreadSection struct {
	Bucket  Bucket
	Threads []model.Thread
}

// BucketFor classifies t by its calendar-day distance from now, both taken
// in now's location. Timestamps in the future count as Today.
func BucketFor(t, now time.Time) Bucket {
	t = t.In(now.Location())
	days := daysBetween(t, now)
	switch {
	case days <= 0:
		return Today
	case days == 1:
		return Yesterday
	case days < 7:
		return ThisWeek
	case days < 14:
		return LastWeek
	case t.Year() == now.Year() && t.Month() == now.Month():
		return ThisMonth
	default:
		return Older
	}
}

// daysBetween counts calendar days from a to b. Noon UTC avoids DST gaps.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// ThreadSections groups threads by the bucket of their last activity. Empty
// buckets are left out; threads inside a bucket are most recent first.
func ThreadSections(threads []model.Thread, now time.Time) []ThreadSection {
	groups := make(map[Bucket][]model.Thread)
	for _, t := range threads {
		b := BucketFor(t.LastActivity(), now)
		groups[b] = append(groups[b], t)
	}

	var sections []ThreadSection
	for _, b := range Buckets {
		members, ok := groups[b]
		if !ok {
			continue
		}
		slices.SortFunc(members, compareActivity)
		sections = append(sections, ThreadSection{Bucket: b, Threads: members})
	}
	return sections
}

func compareActivity(a, b model.Thread) int {
	if c := b.LastActivity().Compare(a.LastActivity()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
