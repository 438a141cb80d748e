package reader

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

func readJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed(StructuredRecord, errors.New("empty document"))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed(StructuredRecord, err)
	}

	// Trailing garbage after the top-level value is malformed too.
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed(StructuredRecord, errors.New("unexpected data after top-level value"))
	}

	return v, nil
}
