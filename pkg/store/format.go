// Package store persists pulse sequences as JSON arrays of microsecond
// durations and keeps a directory of named captures.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/herlein/ookclone/pkg/pulse"
)

// ErrMalformed is returned by Decode for anything but an array of
// non-negative integers that fit in 32 bits.
var ErrMalformed = errors.New("malformed pulse document")

// Encode renders seq as a JSON array followed by a newline. An empty or nil
// sequence encodes as [].
func Encode(seq pulse.Sequence) ([]byte, error) {
	values := []uint32(seq)
	if values == nil {
		values = []uint32{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sequence: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a document written by Encode. The result is never nil.
func Decode(data []byte) (pulse.Sequence, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if elems == nil {
		return nil, fmt.Errorf("%w: not an array", ErrMalformed)
	}

	seq := make(pulse.Sequence, len(elems))
	for i, raw := range elems {
		v, err := strconv.ParseUint(string(bytes.TrimSpace(raw)), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d is %s, want a non-negative integer", ErrMalformed, i, raw)
		}
		seq[i] = uint32(v)
	}
	return seq, nil
}
