package jsonapi

import (
	"io"

	"github.com/bytedance/sonic"
)

// codec follows encoding/json semantics (sorted map keys, HTML escaping)
// so encoded documents are deterministic.
var codec = sonic.ConfigStd

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v any) error {
	return codec.Unmarshal(data, v)
}

// Encode writes the JSON encoding of doc followed by a newline to w.
func Encode(w io.Writer, doc Document) error {
	return codec.NewEncoder(w).Encode(doc.ToMap())
}
