package proxy

type (
	// Field describes a single result column as reported by the proxy.
	Field struct {
		Name             string `json:"name"`
		TableID          int    `json:"tableID"`
		ColumnID         int    `json:"columnID"`
		DataTypeID       int    `json:"dataTypeID"`
		DataTypeSize     int    `json:"dataTypeSize"`
		DataTypeModifier int    `json:"dataTypeModifier"`
		Format           string `json:"format"`
	}

	// QueryResult is the parsed response document of a single statement.
	// For DML statements RowCount holds the number of affected rows.
	QueryResult struct {
		Command  string           `json:"command,omitempty"`
		RowCount int              `json:"rowCount"`
		Rows     []map[string]any `json:"rows"`
		Fields   []Field          `json:"fields"`

		// Message carries an application-level error. The proxy may embed
		// it even under an accepted HTTP status.
		Message string `json:"message,omitempty"`
	}

	// TransactionResult is the parsed response document of a transaction
	// batch - one entry per submitted statement, in submission order.
	TransactionResult struct {
		Results []*QueryResult `json:"results"`
		Message string         `json:"message,omitempty"`
	}
)

// document is implemented by both response types so a single exchange
// routine can serve the single-statement and the transaction variant.
type document interface {
	reset()
	message() string
}

func (r *QueryResult) reset() {
	*r = QueryResult{}
}

func (r *QueryResult) message() string {
	return r.Message
}

func (r *TransactionResult) reset() {
	*r = TransactionResult{}
}

func (r *TransactionResult) message() string {
	return r.Message
}
