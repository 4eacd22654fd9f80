package ingest

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/logshipio/logship"
)

// dtFormat is ISO-8601 with microseconds and offset, the canonical wire
// representation of a record timestamp.
const dtFormat = "2006-01-02T15:04:05.000000Z07:00"

// EncodeBatch serializes a batch into a single msgpack envelope: an array of
// flat maps, one per record. Map keys are sorted so the same batch always
// encodes to the same bytes. The records themselves are left untouched.
func EncodeBatch(batch []logship.Record, opts logship.SanitizeOptions) ([]byte, error) {
	rows := make([]map[string]any, 0, len(batch))
	for _, rec := range batch {
		rows = append(rows, encodeRecord(rec, opts))
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeRecord flattens a record into its wire map: sanitized context fields
// plus canonical message, level and dt. A context field literally named
// "dt" (or "message"/"level") is overwritten, last write wins.
func encodeRecord(rec logship.Record, opts logship.SanitizeOptions) map[string]any {
	row := logship.Sanitize(rec.Context, opts)
	row["message"] = rec.Message
	row["level"] = rec.Level.String()
	row["dt"] = rec.Dt.Format(dtFormat)
	return row
}
