package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is the opaque identifier of a remote entity. The API returns thread
// ids as integers and every other id as a string; both decode into ID and
// ID always encodes as a JSON string.
type ID string

// String returns the ID as a plain string.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts a JSON string or integer.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("decoding id %s: not a string or integer", data)
	}
	*id = ID(strconv.FormatInt(n, 10))
	return nil
}

// MarshalJSON encodes the ID as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Entity is implemented by every record kept in an entity store.
type Entity interface {
	// EntityID returns the key the entity is stored under.
	EntityID() ID

	// Validate reports whether the record satisfies its invariants.
	Validate() error
}
