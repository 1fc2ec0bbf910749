package view

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/nhle/mailbox-sync/internal/model"
)

const (
	maxInitials    = 3
	relativeWindow = 48 * time.Hour
	dateLayout     = "Jan 2, 15:04"
)

// ThreadPreview is a single row of the thread list.
type ThreadPreview struct {
	ID           model.ID
	Subject      string
	Snippet      string
	Unread       bool
	Muted        bool
	Initials     []string
	Received     string
	LastActivity time.Time
}

// ThreadPreviews builds list rows for threads, most recent first.
func ThreadPreviews(threads []model.Thread, now time.Time) []ThreadPreview {
	sorted := slices.Clone(threads)
	slices.SortFunc(sorted, compareActivity)

	previews := make([]ThreadPreview, 0, len(sorted))
	for _, t := range sorted {
		p := ThreadPreview{
			ID:           t.ID,
			Subject:      strings.TrimSpace(t.Subject),
			Unread:       t.Unread(),
			Muted:        t.Muted,
			LastActivity: t.LastActivity(),
			Received:     ReceivedLabel(t.LastActivity(), now),
		}
		if latest, ok := t.Latest(); ok {
			p.Snippet = snippet(latest.Body, latest.SanitizedHTMLBody)
			if p.Subject == "" {
				p.Subject = strings.TrimSpace(latest.Subject)
			}
		}
		for _, sender := range t.Senders() {
			if len(p.Initials) == maxInitials {
				break
			}
			if in := Initials(sender); in != "" {
				p.Initials = append(p.Initials, in)
			}
		}
		previews = append(previews, p)
	}
	return previews
}

// ReceivedLabel renders t relative to now when it is less than two days old
// and as a short date otherwise.
func ReceivedLabel(t, now time.Time) string {
	if now.Sub(t) < relativeWindow {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	return t.In(now.Location()).Format(dateLayout)
}

// Initials returns the first two alphanumeric characters of an address,
// uppercased.
func Initials(address string) string {
	var out []rune
	for _, r := range address {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
