package adapters

import (
	"context"
	"fmt"
	nurl "net/url"
	"strings"
	"sync"

	"github.com/neondatabase-labs/neonhttp/core"
	"github.com/neondatabase-labs/neonhttp/core/builders"
	"github.com/neondatabase-labs/neonhttp/proxy"
)

var (
	_ core.Driver           = (*neonDriver)(nil)
	_ core.DatabaseSwitcher = (*neonDriver)(nil)
)

type neonDriver struct {
	c   *proxy.Client
	url *nurl.URL

	// the proxy client supports one exchange at a time
	mu sync.Mutex
}

func (d *neonDriver) Query(ctx context.Context, query string, params ...any) (core.ResultStream, error) {
	result, err := d.execute(ctx, query, params)
	if err != nil {
		return nil, err
	}

	action := strings.ToLower(strings.Split(query, " ")[0])
	hasReturnValues := strings.Contains(strings.ToLower(query), " returning ")

	if (action == "update" || action == "delete" || action == "insert") && !hasReturnValues {
		next, hasNext := builders.NextSingle(result.RowCount)
		return builders.NewResultStreamBuilder().
			WithNextFunc(next, hasNext).
			WithHeader(core.Header{"Rows Affected"}).
			Build(), nil
	}

	return resultToStream(result), nil
}

// execute runs one exchange and snapshots the response document, so the
// returned result stays valid when the client is reused.
func (d *neonDriver) execute(ctx context.Context, query string, params []any) (*proxy.QueryResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.c.SetQuery(query)

	p := d.c.Params()
	p.Clear()
	p.Add(params...)

	if err := d.c.Execute(ctx); err != nil {
		return nil, err
	}

	result := *d.c.Result()
	return &result, nil
}

// resultToStream orders the row objects by field position.
func resultToStream(result *proxy.QueryResult) core.ResultStream {
	header := make(core.Header, 0, len(result.Fields))
	for _, field := range result.Fields {
		header = append(header, field.Name)
	}

	fields := result.Fields
	next, hasNext := builders.NextSlice(result.Rows, func(row map[string]any) core.Row {
		out := make(core.Row, 0, len(fields))
		for _, field := range fields {
			out = append(out, row[field.Name])
		}
		return out
	})

	return builders.NewResultStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(header).
		Build()
}

func (d *neonDriver) Columns(opts *core.TableOptions) ([]*core.Column, error) {
	rows, err := d.Query(context.Background(), `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema=$1 AND table_name=$2
	`, opts.Schema, opts.Table)
	if err != nil {
		return nil, err
	}

	return builders.ColumnsFromResultStream(rows)
}

func (d *neonDriver) Structure() ([]*core.Structure, error) {
	query := `
		SELECT table_schema, table_name, table_type FROM information_schema.tables UNION ALL
		SELECT schemaname, matviewname, 'MATERIALIZED VIEW' FROM pg_matviews
	`

	rows, err := d.Query(context.Background(), query)
	if err != nil {
		return nil, err
	}

	return core.GetGenericStructure(rows, getPGStructureType)
}

func (d *neonDriver) Close() {
	// nothing to close - the proxy client opens one connection per exchange
}

func (d *neonDriver) ListDatabases() (current string, available []string, err error) {
	query := `
		SELECT current_database(), datname FROM pg_database
		WHERE datistemplate = false
		AND datname != current_database()
	`

	rows, err := d.Query(context.Background(), query)
	if err != nil {
		return "", nil, err
	}

	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return "", nil, err
		}

		// there are always 2 string fields (see query above)
		current = fmt.Sprint(row[0])
		available = append(available, fmt.Sprint(row[1]))
	}

	return current, available, nil
}

func (d *neonDriver) SelectDatabase(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := *d.url
	u.Path = "/" + name

	client, err := proxy.FromURL(u.String())
	if err != nil {
		return fmt.Errorf("unable to switch databases: %w", err)
	}

	d.url = &u
	d.c = client

	return nil
}

// getPGStructureType returns the structure type based on the provided string.
func getPGStructureType(typ string) core.StructureType {
	switch typ {
	case "TABLE", "BASE TABLE", "FOREIGN", "FOREIGN TABLE", "SYSTEM TABLE":
		return core.StructureTypeTable
	case "VIEW", "SYSTEM VIEW":
		return core.StructureTypeView
	case "MATERIALIZED VIEW":
		return core.StructureTypeMaterializedView
	default:
		return core.StructureTypeNone
	}
}
