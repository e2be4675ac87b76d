package core

import "encoding/json"

type SchemaType int

const (
	SchemaFul SchemaType = iota
	SchemaLess
)

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		SchemaType SchemaType
		ChunkStart int
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row and Header are attributes of the ResultStream iterator
	Row    []any
	Header []string

	// Meta holds metadata
	Meta struct {
		// type of schema (schemaful or schemaless)
		SchemaType SchemaType
	}

	// ResultStream is a result from an executed statement in form of an iterator
	ResultStream interface {
		Meta() *Meta
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)

// Column describes a result or table column together with its database type.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableOptions identify a table within a schema.
type TableOptions struct {
	Table  string
	Schema string
}

type StructureType int

const (
	StructureTypeNone StructureType = iota
	StructureTypeTable
	StructureTypeView
	StructureTypeMaterializedView
)

func (s StructureType) String() string {
	switch s {
	case StructureTypeNone:
		return ""
	case StructureTypeTable:
		return "table"
	case StructureTypeView:
		return "view"
	case StructureTypeMaterializedView:
		return "materialized_view"
	default:
		return ""
	}
}

// Structure represents the structure of a single database
type Structure struct {
	// Name to be displayed
	Name   string
	Schema string
	// Type of layout
	Type StructureType
	// Children layout nodes
	Children []*Structure
}

func (s *Structure) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name     string       `json:"name"`
		Schema   string       `json:"schema"`
		Type     string       `json:"type"`
		Children []*Structure `json:"children,omitempty"`
	}{
		Name:     s.Name,
		Schema:   s.Schema,
		Type:     s.Type.String(),
		Children: s.Children,
	})
}
