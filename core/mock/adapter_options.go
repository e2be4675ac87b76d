package mock

import (
	"context"

	"github.com/neondatabase-labs/neonhttp/core"
)

type adapterConfig struct {
	querySideEffects map[string]func(context.Context) error
	tableColumns     map[string][]*core.Column

	resultStreamOptions []ResultStreamOption
}

type AdapterOption func(*adapterConfig)

func AdapterWithQuerySideEffect(query string, sideEffect func(context.Context) error) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

func AdapterWithTableDefinition(table string, columns []*core.Column) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.tableColumns[table]
		if ok {
			panic("columns already registered for table: " + table)
		}

		c.tableColumns[table] = columns
	}
}

func AdapterWithResultStreamOpts(opts ...ResultStreamOption) AdapterOption {
	return func(c *adapterConfig) {
		c.resultStreamOptions = append(c.resultStreamOptions, opts...)
	}
}
