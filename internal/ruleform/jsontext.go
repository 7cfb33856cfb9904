package ruleform

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
)

// parseJSON decodes text the way a browser JSON.parse would, keeping numbers
// exact. Trailing data is an error.
func parseJSON(text string) (interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

// storeActions replaces the actions text with v. A value that does not
// encode leaves the text as it was.
func (f *Form) storeActions(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	f.actions = string(b)
}

// formatJSON renders a stored value as editable text.
func formatJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "null"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// payloadValue parses edited text back into JSON. Text that does not parse
// is sent as a JSON string so the original characters reach the server.
func payloadValue(text string) json.RawMessage {
	if text == "" {
		return nil
	}
	if _, ok := parseJSON(text); ok {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(text)); err == nil {
			return buf.Bytes()
		}
	}
	b, _ := json.Marshal(text)
	return b
}

// number encodes v for the actions text. NaN and infinities become 0.
func number(v float64) json.Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Number("0")
	}
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
}
