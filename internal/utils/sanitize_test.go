package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text unchanged", input: "customer name", want: "customer name"},
		{name: "whitespace trimmed", input: "  score  ", want: "score"},
		{name: "dangerous characters stripped", input: `na<me>'";` + "`" + `\`, want: "name"},
		{name: "empty input", input: "", want: ""},
		{name: "truncated to 255 bytes", input: strings.Repeat("a", 300), want: strings.Repeat("a", 255)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeInput(tt.input))
		})
	}
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "ascii", input: "name", want: "name"},
		{name: "underscore and digits", input: "score_2024", want: "score_2024"},
		{name: "interior whitespace", input: "first name", want: "first name"},
		{name: "chinese characters", input: "姓名", want: "姓名"},
		{name: "quotes stripped before validation", input: `"name"`, want: "name"},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "only dangerous characters rejected", input: `<>'";`, wantErr: true},
		{name: "punctuation rejected", input: "price($)", wantErr: true},
		{name: "sql injection rejected", input: "name) TEXT); DROP TABLE users; --", wantErr: true},
		{name: "over 100 chars rejected", input: strings.Repeat("a", 101), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeColumnName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"name"`, QuoteIdentifier("name"))
	assert.Equal(t, `"first name"`, QuoteIdentifier("first name"))
	assert.Equal(t, `"he said ""hi"""`, QuoteIdentifier(`he said "hi"`))
}

func TestDeriveTableName(t *testing.T) {
	id := uuid.New()
	name := DeriveTableName(id)

	assert.True(t, strings.HasPrefix(name, "dataset_"))
	assert.True(t, IsValidTableName(name))
	assert.LessOrEqual(t, len(name), len("dataset_")+16)

	// Derivation is deterministic per dataset id.
	assert.Equal(t, name, DeriveTableName(id))
	assert.NotEqual(t, name, DeriveTableName(uuid.New()))
}

func TestIsValidTableName(t *testing.T) {
	assert.True(t, IsValidTableName("dataset_abc123_f"))
	assert.False(t, IsValidTableName("users"))
	assert.False(t, IsValidTableName("dataset_"))
	assert.False(t, IsValidTableName(`dataset_a"b`))
	assert.False(t, IsValidTableName("dataset_a-b"))
}
