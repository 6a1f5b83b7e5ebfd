package chat

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	domain "github.com/example/nextalk-server/domain/chat"
)

// Field aliases accepted on send_message, in priority order.
var (
	senderKeys  = []string{"author", "sender"}
	contentKeys = []string{"message", "content"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeMessage builds the canonical record for a send_message payload.
// target is the room the payload addressed, or "" when it named none.
// Payloads that are not JSON objects yield an empty message in the default room.
func NormalizeMessage(raw json.RawMessage, now time.Time) (msg domain.Message, target string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		fields = nil
	}

	target, _ = scalarString(fields["room"])
	msg = domain.Message{
		Sender:    firstNonEmpty(fields, senderKeys),
		Content:   firstNonEmpty(fields, contentKeys),
		Room:      domain.RoomOrDefault(target),
		Timestamp: parseTime(fields["time"], now),
	}
	return msg, target
}

func firstNonEmpty(fields map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		if s, ok := scalarString(fields[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

// scalarString returns the text of a JSON string, number or boolean.
func scalarString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[', 'n':
		return "", false
	default:
		return string(raw), true
	}
}

// parseTime accepts RFC 3339 style strings or epoch milliseconds.
func parseTime(raw json.RawMessage, now time.Time) time.Time {
	raw = bytes.TrimSpace(raw)
	s, ok := scalarString(raw)
	if !ok || s == "" {
		return now
	}
	if raw[0] != '"' {
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			return time.UnixMilli(int64(ms)).UTC()
		}
		return now
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now
}

// payloadOrNil hides empty payloads so frames omit their data field.
func payloadOrNil(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return raw
}
