package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleString accepts a JSON string, number or null. Signup clients send
// phone and age either way.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("null")):
		*fs = ""
		return nil
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*fs = FlexibleString(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", raw)
	}
	*fs = FlexibleString(num.String())
	return nil
}

func (fs FlexibleString) String() string {
	return strings.TrimSpace(string(fs))
}
