package repository

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// marshalDoc serializes a document column. Empty documents become NULL so
// the column stays queryable with IS NULL.
func marshalDoc(v any, empty bool) (pqtype.NullRawMessage, error) {
	if empty {
		return pqtype.NullRawMessage{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

// unmarshalDoc deserializes a nullable document column into out, leaving
// out untouched for NULL.
func unmarshalDoc(raw pqtype.NullRawMessage, out any) error {
	if !raw.Valid || len(raw.RawMessage) == 0 {
		return nil
	}
	return json.Unmarshal(raw.RawMessage, out)
}

// textArray wraps a string slice for a NOT NULL text[] column; nil slices
// become empty arrays instead of SQL NULL.
func textArray(ss []string) any {
	if ss == nil {
		ss = []string{}
	}
	return pq.Array(ss)
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func ptrToNullUUID(u *uuid.UUID) uuid.NullUUID {
	if u != nil {
		return uuid.NullUUID{UUID: *u, Valid: true}
	}
	return uuid.NullUUID{}
}

func nullUUIDToPtr(nu uuid.NullUUID) *uuid.UUID {
	if nu.Valid {
		return &nu.UUID
	}
	return nil
}
