package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/medinsight/internal/record"
)

// marshalDetails converts a details payload to nullable TEXT.
// The payload is compacted; absent or JSON null details store NULL.
func marshalDetails(details json.RawMessage) (sql.NullString, error) {
	compact := record.CompactDetails(details)
	if compact == nil {
		return sql.NullString{}, nil
	}
	if !json.Valid(compact) {
		return sql.NullString{}, fmt.Errorf("marshal details: %w", ErrInvalidDetails)
	}
	return sql.NullString{String: string(compact), Valid: true}, nil
}

// unmarshalDetails converts nullable TEXT back to a details payload.
func unmarshalDetails(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}

func nullableText(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func textPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
