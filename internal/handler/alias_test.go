package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) aliasedBody {
	t.Helper()
	b, err := decodeAliased(strings.NewReader(body))
	require.NoError(t, err)
	return b
}

func TestAliasResolution(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		canonical string
		want      string
	}{
		{"canonical spelling", `{"storeId":"s1"}`, "storeId", "s1"},
		{"snake case spelling", `{"store_id":"s1"}`, "storeId", "s1"},
		{"canonical wins over alias", `{"storeId":"a","store_id":"b"}`, "storeId", "a"},
		{"datetime maps to startAt", `{"datetime":"2025-09-04T21:45:00+09:00"}`, "startAt", "2025-09-04T21:45:00+09:00"},
		{"tel maps to phone", `{"tel":"090-0000-0000"}`, "phone", "090-0000-0000"},
		{"note maps to message", `{"note":"window seat please"}`, "message", "window seat please"},
		{"customer_name maps to name", `{"customer_name":"Sato"}`, "name", "Sato"},
		{"whitespace trimmed", `{"name":"  Sato  "}`, "name", "Sato"},
		{"absent field", `{"name":"Sato"}`, "phone", ""},
		{"wrong type reads as absent", `{"name":42}`, "name", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decode(t, tt.body).str(tt.canonical))
		})
	}
}

func TestIntegerField(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   int
		wantOK bool
	}{
		{"plain number", `{"people":4}`, 4, true},
		{"quoted number", `{"people":"4"}`, 4, true},
		{"quoted with spaces", `{"people":" 4 "}`, 4, true},
		{"party_size alias", `{"party_size":6}`, 6, true},
		{"fractional rejected", `{"people":4.5}`, 0, false},
		{"garbage rejected", `{"people":"abc"}`, 0, false},
		{"absent", `{}`, 0, false},
		{"null rejected", `{"people":null}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := decode(t, tt.body).integer("people")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}
