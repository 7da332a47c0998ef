// Package elementcodec gives the tagged element dictionary of spec.md
// §6 a concrete wire format: callers own serialization of the element
// grammar (the core never persists anything), and this package is the
// one gridsched ships — msgpack over a generic field bag, the same
// wire library the teacher uses for its broker-data cache.
package elementcodec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is the wire shape of one element: the (concept, type,
// instance) key the assembly registry dispatches on, plus a generic
// field bag. Fields hold only msgpack-native types (strings, numbers,
// bools, nested maps/slices) — translating a Record's Fields into a
// concrete handler payload (assembly.BalanceSpec, FlowSpec, ...) is the
// caller's job, since that mapping is handler-specific.
type Record struct {
	Concept  string         `msgpack:"concept"`
	Type     string         `msgpack:"type"`
	Instance string         `msgpack:"instance"`
	Fields   map[string]any `msgpack:"fields"`
}

// Marshal encodes a batch of records as one msgpack array.
func Marshal(records []Record) ([]byte, error) {
	b, err := msgpack.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal element records: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a batch of records previously written by Marshal.
func Unmarshal(b []byte) ([]Record, error) {
	var records []Record
	if err := msgpack.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("unmarshal element records: %w", err)
	}
	return records, nil
}
