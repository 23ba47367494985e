// Package identity computes the content hash that groups verbal autopsy
// records describing the same underlying death report.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"go.uber.org/zap"

	"va-core/internal/domain"
)

// ValidateFields filters a configured identity-field list down to names that
// exist on the record schema, preserving order. Unknown names are dropped
// with a warning rather than failing the save path. When the input is
// non-empty but nothing survives, detection would silently degrade to
// disabled, so that case is surfaced as domain.ErrIdentityDisabled.
func ValidateFields(configured []string, logger *zap.Logger) ([]string, error) {
	if len(configured) == 0 {
		return nil, nil
	}
	valid := make([]string, 0, len(configured))
	for _, f := range configured {
		if KnownField(f) {
			valid = append(valid, f)
			continue
		}
		if logger != nil {
			logger.Warn("dropping unknown identity field from duplicate detection",
				zap.String("field", f))
		}
	}
	if len(valid) == 0 {
		return nil, domain.ErrIdentityDisabled
	}
	return valid, nil
}

// ComputeHash returns the md5 hex digest of the record's answers for the
// given fields, concatenated in configured order. Field order is part of the
// contract: reordering the configuration changes every hash and breaks
// duplicate-group continuity.
//
// Returns "" when fields is empty; callers must treat that as detection
// disabled, never as a real group key (hashing an empty string would
// spuriously collide all records).
func ComputeHash(va *domain.VerbalAutopsy, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	h := md5.New()
	for _, f := range fields {
		io.WriteString(h, va.AnswerOrUnknown(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnyFieldChanged reports whether the two records differ on any of the given
// fields. The save path skips reconciliation entirely when nothing changed.
func AnyFieldChanged(va, previous *domain.VerbalAutopsy, fields []string) bool {
	for _, f := range fields {
		if va.AnswerOrUnknown(f) != previous.AnswerOrUnknown(f) {
			return true
		}
	}
	return false
}
