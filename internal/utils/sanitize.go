package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Table and column names end up interpolated into DDL/DML because SQL does not
// allow identifiers as bound parameters. Everything here exists to make that
// interpolation safe: names are validated against a restricted charset and
// quoted with the engine's identifier syntax before they touch a statement.

const (
	tableNamePrefix    = "dataset_"
	maxInputBytes      = 255
	tableNameMaxSuffix = 16
)

var (
	// Characters never allowed in operator-supplied input, stripped before
	// validation.
	dangerousChars = regexp.MustCompile("[<>'\"`;\\\\]")

	// Word characters, underscore, whitespace and CJK Unified Ideographs.
	// The uploads this system was built for carry Chinese column headers.
	columnNamePattern = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9_\s]{1,100}$`)

	tableNamePattern = regexp.MustCompile(`^dataset_[a-zA-Z0-9_]{1,50}$`)
)

// SanitizeInput trims, strips dangerous characters and truncates to 255 bytes.
// It is a pre-filter, not a validator; callers that need a safe identifier
// must still validate the result.
func SanitizeInput(input string) string {
	if input == "" {
		return ""
	}
	out := strings.TrimSpace(input)
	out = dangerousChars.ReplaceAllString(out, "")
	if len(out) > maxInputBytes {
		out = out[:maxInputBytes]
	}
	return out
}

// IsValidColumnName reports whether name matches the restricted column
// charset.
func IsValidColumnName(name string) bool {
	return columnNamePattern.MatchString(name)
}

// NormalizeColumnName sanitizes a raw column header and validates it against
// the restricted charset. The returned name is safe to pass to
// QuoteIdentifier.
func NormalizeColumnName(raw string) (string, error) {
	name := SanitizeInput(raw)
	if !IsValidColumnName(name) {
		return "", fmt.Errorf("invalid column name: %s", raw)
	}
	return name, nil
}

// QuoteIdentifier wraps a validated identifier in double quotes, doubling any
// embedded quote, so it can be interpolated into a SQL fragment as a table or
// column name.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DeriveTableName produces the backing table name for a dataset. The fixed
// prefix plus the hyphen-free uuid encoding satisfies the restricted-charset
// invariant by construction.
func DeriveTableName(datasetID uuid.UUID) string {
	suffix := strings.ReplaceAll(datasetID.String(), "-", "_")
	if len(suffix) > tableNameMaxSuffix {
		suffix = suffix[:tableNameMaxSuffix]
	}
	return tableNamePrefix + suffix
}

// IsValidTableName reports whether name matches the generated-name invariant.
// Checked again before destructive statements as defense in depth against a
// corrupted metadata row.
func IsValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
