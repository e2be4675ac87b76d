package proxy

import "encoding/json"

type (
	// QueryRequest is the payload for a single statement exchange.
	QueryRequest struct {
		Query  string  `json:"query"`
		Params *Params `json:"params"`
	}

	// TransactionRequest batches multiple statements for atomic execution
	// by the proxy.
	TransactionRequest struct {
		Queries []*QueryRequest `json:"queries"`
	}
)

// Params is a mutable handle to the positional parameter values of a pending
// statement. The zero value is an empty parameter list.
type Params struct {
	values []any
}

// Clear removes all parameter values.
func (p *Params) Clear() {
	p.values = p.values[:0]
}

// Add appends positional values to the parameter list.
func (p *Params) Add(values ...any) {
	p.values = append(p.values, values...)
}

// Set replaces the parameter list with the provided values.
func (p *Params) Set(values ...any) {
	p.values = append(p.values[:0], values...)
}

func (p *Params) Len() int {
	return len(p.values)
}

// Values returns a copy of the current parameter values.
func (p *Params) Values() []any {
	out := make([]any, len(p.values))
	copy(out, p.values)
	return out
}

// MarshalJSON always serializes to a JSON array, never null - the proxy
// expects "params" to be present even for statements without markers.
func (p *Params) MarshalJSON() ([]byte, error) {
	if p == nil || len(p.values) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(p.values)
}
