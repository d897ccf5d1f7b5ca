package handler

// alias.go resolves field-name aliasing once at the API boundary.  Callers
// reach this service through several generations of clients (chat bot,
// web calendar, legacy forms) that spell the same logical field
// differently.  Each canonical field maps to the spellings accepted for
// it; the first alias present in the request body wins.

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// fieldAliases maps canonical field names to accepted request spellings,
// in priority order.
var fieldAliases = map[string][]string{
	"storeId": {"storeId", "store_id"},
	"startAt": {"startAt", "start_at", "datetime"},
	"date":    {"date"},
	"time":    {"time"},
	"name":    {"name", "customerName", "customer_name"},
	"phone":   {"phone", "phoneNumber", "phone_number", "tel"},
	"people":  {"people", "partySize", "party_size"},
	"seatId":  {"seatId", "seat_id"},
	"message": {"message", "note"},
}

// aliasedBody is a decoded JSON object with alias-aware field access.
type aliasedBody map[string]json.RawMessage

// decodeAliased reads a JSON object from the request body.
func decodeAliased(r io.Reader) (aliasedBody, error) {
	var body aliasedBody
	dec := json.NewDecoder(r)
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// raw returns the first present alias value for a canonical field.
func (b aliasedBody) raw(canonical string) (json.RawMessage, bool) {
	for _, alias := range fieldAliases[canonical] {
		if v, ok := b[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

// str returns a trimmed string field, or "" when absent or not a string.
func (b aliasedBody) str(canonical string) string {
	v, ok := b.raw(canonical)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// integer returns an integral field value.  JSON numbers must be whole
// (4.5 is rejected, never truncated); numeric strings like "4" are
// accepted for chat-bot clients that quote everything.  ok is false for
// anything else.
func (b aliasedBody) integer(canonical string) (int, bool) {
	v, ok := b.raw(canonical)
	if !ok {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(v, &num); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, false
		}
		num = json.Number(strings.TrimSpace(s))
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
