package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/view"
	"github.com/nhle/mailbox-sync/tests/testutil"
)

func threadAt(id string, received ...time.Time) model.Thread {
	t := model.Thread{ID: model.ID(id), Subject: "t" + id, CreatedAt: testutil.Date(2020, time.January, 1, 0, 0)}
	for i, r := range received {
		t.Emails = append(t.Emails, model.Email{
			ID:         model.ID(id + "-" + string(rune('a'+i))),
			FromEmail:  "sender" + id + "@example.com",
			ReceivedAt: r,
		})
	}
	return t
}

func TestContactSections(t *testing.T) {
	contacts := []model.Contact{
		{ID: "1", DisplayName: "Zed"},
		{ID: "2", Email: "amy@x.com"},
	}

	got := view.ContactSections(contacts, "en")

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Key)
	assert.Equal(t, "amy@x.com", got[0].Contacts[0].Label())
	assert.Equal(t, "Z", got[1].Key)
	assert.Equal(t, "Zed", got[1].Contacts[0].Label())
}

func TestContactSections_CatchAllAndOrdering(t *testing.T) {
	contacts := []model.Contact{
		{ID: "1", DisplayName: "  bob  "},
		{ID: "2", Email: "42@numbers.io"},
		{ID: "3", DisplayName: "Alice"},
		{ID: "4", DisplayName: "   ", Email: "anna@x.com"},
		{ID: "5", Email: "7eleven@shop.io"},
		{ID: "6", DisplayName: "Ben"},
		{ID: "7", DisplayName: "ben"},
	}
	input := append([]model.Contact(nil), contacts...)

	got := view.ContactSections(contacts, "en")

	keys := make([]string, 0, len(got))
	for _, s := range got {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"A", "B", view.CatchAllKey}, keys)

	labels := func(s view.ContactSection) []string {
		var out []string
		for _, c := range s.Contacts {
			out = append(out, c.Label())
		}
		return out
	}
	assert.Equal(t, []string{"Alice", "anna@x.com"}, labels(got[0]))
	assert.Equal(t, []string{"Ben", "ben", "bob"}, labels(got[1]))
	assert.Equal(t, []string{"42@numbers.io", "7eleven@shop.io"}, labels(got[2]))
	assert.Equal(t, input, contacts, "input must not be reordered")
}

func TestContactSections_Idempotent(t *testing.T) {
	contacts := []model.Contact{{ID: "1", DisplayName: "Émile"}, {ID: "2", DisplayName: "Eve"}, {ID: "3", DisplayName: "Frank"}}

	first := view.ContactSections(contacts, "fr")
	second := view.ContactSections(contacts, "fr")

	assert.Equal(t, first, second)
	assert.Empty(t, view.ContactSections(nil, "en"))
}

func TestThreadSections(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	threads := []model.Thread{
		threadAt("old", now.AddDate(0, 0, -40)),
		threadAt("lastweek", now.AddDate(0, 0, -8)),
		threadAt("yesterday", testutil.Date(2024, time.May, 19, 20, 0)),
		threadAt("today", testutil.Date(2024, time.May, 20, 9, 0)),
	}

	got := view.ThreadSections(threads, now)

	require.Len(t, got, 4)
	want := []struct {
		bucket view.Bucket
		id     model.ID
	}{
		{view.Today, "today"},
		{view.Yesterday, "yesterday"},
		{view.LastWeek, "lastweek"},
		{view.Older, "old"},
	}
	for i, w := range want {
		assert.Equal(t, w.bucket, got[i].Bucket)
		require.Len(t, got[i].Threads, 1)
		assert.Equal(t, w.id, got[i].Threads[0].ID)
	}
}

func TestThreadSections_WithinBucketMostRecentFirst(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	threads := []model.Thread{
		threadAt("b", testutil.Date(2024, time.May, 20, 8, 0)),
		threadAt("c", testutil.Date(2024, time.May, 20, 8, 0)),
		threadAt("a", testutil.Date(2024, time.May, 19, 23, 0), testutil.Date(2024, time.May, 20, 12, 0)),
	}

	got := view.ThreadSections(threads, now)

	require.Len(t, got, 1)
	var ids []model.ID
	for _, th := range got[0].Threads {
		ids = append(ids, th.ID)
	}
	assert.Equal(t, []model.ID{"a", "b", "c"}, ids)
}

func TestBucketFor(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	tests := []struct {
		name string
		at   time.Time
		want view.Bucket
	}{
		{"future", now.Add(time.Hour), view.Today},
		{"start of today", testutil.Date(2024, time.May, 20, 0, 0), view.Today},
		{"late yesterday", testutil.Date(2024, time.May, 19, 23, 59), view.Yesterday},
		{"two days", testutil.Date(2024, time.May, 18, 12, 0), view.ThisWeek},
		{"six days", testutil.Date(2024, time.May, 14, 12, 0), view.ThisWeek},
		{"seven days", testutil.Date(2024, time.May, 13, 12, 0), view.LastWeek},
		{"thirteen days", testutil.Date(2024, time.May, 7, 12, 0), view.LastWeek},
		{"same month", testutil.Date(2024, time.May, 2, 12, 0), view.ThisMonth},
		{"previous month", testutil.Date(2024, time.April, 30, 12, 0), view.Older},
		{"previous year", testutil.Date(2023, time.May, 20, 12, 0), view.Older},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, view.BucketFor(tt.at, now))
		})
	}
}

func TestBucketFor_UsesNowLocation(t *testing.T) {
	tz := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, time.May, 20, 8, 0, 0, 0, tz)
	// 21:30 UTC on the 19th is 07:30 on the 20th in UTC+10.
	at := time.Date(2024, time.May, 19, 21, 30, 0, 0, time.UTC)

	assert.Equal(t, view.Today, view.BucketFor(at, now))
}

func TestThreadSections_UsesLatestEmailNotCreation(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	th := threadAt("1", testutil.Date(2024, time.May, 19, 10, 0))
	th.CreatedAt = testutil.Date(2024, time.May, 20, 10, 0)

	got := view.ThreadSections([]model.Thread{th}, now)

	require.Len(t, got, 1)
	assert.Equal(t, view.Yesterday, got[0].Bucket)
}

func TestThreadPreviews(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	recent := threadAt("1", testutil.Date(2024, time.May, 20, 12, 0))
	recent.Emails[0].Body = "  Hello\n\nthere   friend "
	recent.Muted = true

	old := threadAt("2", testutil.Date(2024, time.May, 1, 9, 30), testutil.Date(2024, time.May, 2, 10, 5))
	old.Emails[0].FromEmail = "x.y@example.com"
	old.Emails[1].FromEmail = "zoe@example.com"
	old.Emails[1].IsRead = true
	old.Emails[1].SanitizedHTMLBody = `<div><style>p{}</style><p>Quarterly <b>numbers</b></p><p>attached</p></div>`

	got := view.ThreadPreviews([]model.Thread{old, recent}, now)

	require.Len(t, got, 2)
	assert.Equal(t, model.ID("1"), got[0].ID)
	assert.Equal(t, "Hello there friend", got[0].Snippet)
	assert.True(t, got[0].Unread)
	assert.True(t, got[0].Muted)
	assert.Equal(t, "3 hours ago", got[0].Received)
	assert.Equal(t, []string{"SE"}, got[0].Initials)

	assert.Equal(t, "Quarterly numbers attached", got[1].Snippet)
	assert.False(t, got[1].Unread)
	assert.Equal(t, "May 2, 10:05", got[1].Received)
	assert.Equal(t, []string{"XY", "ZO"}, got[1].Initials)
}

func TestThreadPreviews_TruncatesSnippet(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	th := threadAt("1", now)
	long := ""
	for range 50 {
		long += "word "
	}
	th.Emails[0].Body = long

	got := view.ThreadPreviews([]model.Thread{th}, now)

	require.Len(t, got, 1)
	assert.LessOrEqual(t, len([]rune(got[0].Snippet)), 141)
	assert.True(t, len(got[0].Snippet) > 0)
	assert.Equal(t, "…", string([]rune(got[0].Snippet)[len([]rune(got[0].Snippet))-1]))
}

func TestThreadPreviews_AtMostThreeInitials(t *testing.T) {
	now := testutil.Date(2024, time.May, 20, 15, 0)
	th := threadAt("1",
		testutil.Date(2024, time.May, 20, 9, 0),
		testutil.Date(2024, time.May, 20, 10, 0),
		testutil.Date(2024, time.May, 20, 11, 0),
		testutil.Date(2024, time.May, 20, 12, 0),
	)
	for i, from := range []string{"ann@x.io", "bob@x.io", "ann@x.io", "cy@x.io"} {
		th.Emails[i].FromEmail = from
	}
	th.Emails = append(th.Emails, model.Email{ID: "late", FromEmail: "dee@x.io", ReceivedAt: testutil.Date(2024, time.May, 20, 13, 0)})

	got := view.ThreadPreviews([]model.Thread{th}, now)

	assert.Equal(t, []string{"AN", "BO", "CY"}, got[0].Initials)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JD", view.Initials("j.d@example.com"))
	assert.Equal(t, "A1", view.Initials("a1@example.com"))
	assert.Equal(t, "", view.Initials("--"))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		mime string
		want view.Kind
	}{
		{"image/png", view.KindImage},
		{"audio/mpeg", view.KindAudio},
		{"video/mp4", view.KindVideo},
		{"application/pdf", view.KindPDF},
		{"application/zip", view.KindArchive},
		{"application/x-7z-compressed", view.KindArchive},
		{"text/csv", view.KindSpreadsheet},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", view.KindSpreadsheet},
		{"application/json", view.KindCode},
		{"text/plain", view.KindCode},
		{"application/msword", view.KindDocument},
		{"application/octet-stream", view.KindOther},
		{"", view.KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, view.KindOf(tt.mime), tt.mime)
	}
}

func TestAttachmentTiles(t *testing.T) {
	atts := []model.Attachment{
		{ID: "doc", Filename: "notes.txt", MIMEType: "text/plain", Size: 512, PrivateFileURL: "https://files/notes", CreatedAt: testutil.Date(2024, time.May, 1, 0, 0)},
		{ID: "img", Filename: "cat.png", MIMEType: "image/png", Size: 2048, PrivateFileURL: "https://files/cat", CreatedAt: testutil.Date(2024, time.May, 3, 0, 0)},
		{ID: "bare", Filename: "dog.jpg", MIMEType: "image/jpeg", Size: 5 * 1024 * 1024, CreatedAt: testutil.Date(2024, time.May, 2, 0, 0)},
	}

	got := view.AttachmentTiles(atts)

	require.Len(t, got, 3)
	assert.Equal(t, model.ID("img"), got[0].ID)
	assert.Equal(t, "2.0 KiB", got[0].Size)
	assert.Equal(t, "https://files/cat", got[0].PreviewURL)

	assert.Equal(t, model.ID("bare"), got[1].ID)
	assert.Equal(t, "5.0 MiB", got[1].Size)
	assert.Empty(t, got[1].PreviewURL)

	assert.Equal(t, model.ID("doc"), got[2].ID)
	assert.Equal(t, "512 B", got[2].Size)
	assert.Equal(t, view.KindCode, got[2].Kind)
	assert.Empty(t, got[2].PreviewURL)
}
