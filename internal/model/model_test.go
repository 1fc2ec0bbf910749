package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailbox-sync/internal/model"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    model.ID
		wantErr bool
	}{
		{"string", `"abc"`, "abc", false},
		{"integer", `42`, "42", false},
		{"null", `null`, "", false},
		{"float", `4.2`, "", true},
		{"object", `{}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id model.ID
			err := json.Unmarshal([]byte(tt.in), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_MarshalsAsString(t *testing.T) {
	var th model.Thread
	require.NoError(t, json.Unmarshal([]byte(`{"id": 7}`), &th))

	out, err := json.Marshal(th.ID)

	require.NoError(t, err)
	assert.JSONEq(t, `"7"`, string(out))
}

func TestContact_Label(t *testing.T) {
	assert.Equal(t, "Amy", model.Contact{DisplayName: "  Amy ", Email: "amy@x.com"}.Label())
	assert.Equal(t, "amy@x.com", model.Contact{DisplayName: "   ", Email: "amy@x.com"}.Label())
	assert.Equal(t, "amy@x.com", model.Contact{Email: "amy@x.com"}.Label())
}

func TestContact_NotificationPreference(t *testing.T) {
	var c model.Contact
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","email":"a@x.com","notification_preference":"always_notify"}`), &c))
	assert.Equal(t, model.NotifyAlways, c.NotificationPreference)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","email":"a@x.com","notification_preference":null}`), &c))
	assert.Equal(t, model.NotifyDefault, c.NotificationPreference)

	err := json.Unmarshal([]byte(`{"id":"1","email":"a@x.com","notification_preference":"loud"}`), &c)
	assert.Error(t, err)

	assert.Equal(t, model.NotifyDefault, model.Contact{ID: "1", Email: "a@x.com"}.Normalize().NotificationPreference)
}

func TestContact_Validate(t *testing.T) {
	assert.NoError(t, model.Contact{ID: "1", Email: "a@x.com"}.Validate())
	assert.NoError(t, model.Contact{ID: "1", DisplayName: "A"}.Validate())
	assert.Error(t, model.Contact{Email: "a@x.com"}.Validate())
	assert.Error(t, model.Contact{ID: "1"}.Validate())
	assert.Error(t, model.Contact{ID: "1", Email: "a@x.com", NotificationPreference: "loud"}.Validate())
}

func TestThread_NormalizeOrdersEmails(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.May, d, 9, 0, 0, 0, time.UTC) }
	th := model.Thread{
		ID: "1",
		Emails: []model.Email{
			{ID: "b", FromEmail: "b@x.com", ReceivedAt: day(3)},
			{ID: "a", FromEmail: "a@x.com", ReceivedAt: day(1)},
			{ID: "c", FromEmail: "a@x.com", ReceivedAt: day(2), IsRead: true},
		},
	}
	require.Error(t, th.Validate())

	n := th.Normalize()

	require.NoError(t, n.Validate())
	latest, ok := n.Latest()
	require.True(t, ok)
	assert.Equal(t, model.ID("b"), latest.ID)
	assert.Equal(t, day(3), n.LastActivity())
	assert.True(t, n.Unread())
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, n.Senders())
	assert.Equal(t, model.ID("b"), th.Emails[0].ID, "input must not be reordered")
}

func TestThread_ValidateRejectsEmptyEmails(t *testing.T) {
	created := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	for _, emails := range [][]model.Email{nil, {}} {
		th := model.Thread{ID: "1", CreatedAt: created, Emails: emails}
		assert.ErrorContains(t, th.Validate(), "has no emails")
		assert.ErrorContains(t, th.Normalize().Validate(), "has no emails")
	}

	th := model.Thread{ID: "1", CreatedAt: created, Emails: []model.Email{{ID: "e1", ReceivedAt: created}}}
	assert.NoError(t, th.Validate())
}

func TestEmail_Sender(t *testing.T) {
	assert.Equal(t, "Amy", model.Email{FromEmail: "amy@x.com", FromContact: &model.Contact{DisplayName: "Amy"}}.Sender())
	assert.Equal(t, "amy@x.com", model.Email{FromEmail: " amy@x.com "}.Sender())
}

func TestEmail_Validate(t *testing.T) {
	assert.NoError(t, model.Email{ID: "1"}.Validate())
	assert.Error(t, model.Email{}.Validate())
	assert.Error(t, model.Email{ID: "1", FromContact: &model.Contact{ID: "c"}}.Validate())
	assert.Error(t, model.Email{ID: "1", Attachments: []model.Attachment{{ID: "a", Size: -1}}}.Validate())
}

func TestAttachment_Normalize(t *testing.T) {
	a := model.Attachment{ID: "1", MIMEType: " Image/PNG "}.Normalize()
	assert.Equal(t, "image/png", a.MIMEType)
	assert.Error(t, model.Attachment{ID: "1", Size: -5}.Validate())
}

func TestProfile(t *testing.T) {
	p := model.Profile{ID: "7", Email: " amy@x.com ", FirstName: " Amy "}.Normalize()
	require.NoError(t, p.Validate())
	assert.Equal(t, "amy@x.com", p.Email)
	assert.Equal(t, "Amy", p.Name())

	assert.Equal(t, "amy", model.Profile{ID: "7", Username: "amy", Email: "a@x.com"}.Name())
	assert.Equal(t, "a@x.com", model.Profile{ID: "7", Email: "a@x.com"}.Name())

	assert.Error(t, model.Profile{Email: "a@x.com"}.Validate())
	assert.Error(t, model.Profile{ID: "7"}.Validate())
}
