package gateway

import "encoding/json"

// Envelope is the paginated list shape some endpoints return:
// {"count": N, "next": url|null, "previous": url|null, "results": [...]}.
type Envelope struct {
	Count    *int            `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// Endpoint paths below the base URL.
const (
	threadsPath     = "/api/emails/threads/"
	emailsPath      = "/api/emails/"
	attachmentsPath = "/api/emails/attachments/"
	contactsPath    = "/api/users/contacts/"
	profilePath     = "/api/users/"
)

// Download is the raw content of an attachment.
type Download struct {
	ContentType string
	Data        []byte
}
