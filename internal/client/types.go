package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// truthy decodes any JSON value with JavaScript truthiness: false, 0, "",
// and null are false, everything else is true.
type truthy bool

func (t *truthy) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte(`""`)):
		*t = false
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*t = f != 0
	default:
		*t = true
	}
	return nil
}

// idString accepts a JSON string or number; the service emits numeric session ids.
type idString string

func (s *idString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = idString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("session id must be a string or number: %w", err)
	}
	*s = idString(n.String())
	return nil
}
