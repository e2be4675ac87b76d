package sqldriver_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neondatabase-labs/neonhttp/internal/proxytest"
	_ "github.com/neondatabase-labs/neonhttp/sqldriver"
)

func openTestDB(t *testing.T, server *proxytest.Server) *sql.DB {
	t.Helper()
	r := require.New(t)

	db, err := sql.Open("neonhttp", server.ConnString())
	r.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestQuery(t *testing.T) {
	r := require.New(t)

	server := proxytest.NewServer(t, proxytest.OKResponse(`{
		"command": "SELECT",
		"rowCount": 2,
		"rows": [
			{"id": 1, "name": "earth"},
			{"id": 2, "name": "mars"}
		],
		"fields": [
			{"name": "id", "dataTypeID": 23},
			{"name": "name", "dataTypeID": 25}
		]
	}`))

	db := openTestDB(t, server)

	rows, err := db.QueryContext(context.Background(), "SELECT id, name FROM planets WHERE id < $1", 10)
	r.NoError(err)
	defer rows.Close()

	columns, err := rows.Columns()
	r.NoError(err)
	r.Equal([]string{"id", "name"}, columns)

	type planet struct {
		id   float64
		name string
	}

	var planets []planet
	for rows.Next() {
		var p planet
		r.NoError(rows.Scan(&p.id, &p.name))
		planets = append(planets, p)
	}
	r.NoError(rows.Err())

	r.Equal([]planet{{1, "earth"}, {2, "mars"}}, planets)

	exchange := server.NextExchange(t)
	r.JSONEq(`{"query":"SELECT id, name FROM planets WHERE id < $1","params":[10]}`, string(exchange.Body))
}

func TestExec(t *testing.T) {
	r := require.New(t)

	server := proxytest.NewServer(t, proxytest.OKResponse(`{
		"command": "UPDATE",
		"rowCount": 5,
		"rows": [],
		"fields": []
	}`))

	db := openTestDB(t, server)

	result, err := db.ExecContext(context.Background(), "UPDATE planets SET visited = true WHERE id < $1", 6)
	r.NoError(err)

	affected, err := result.RowsAffected()
	r.NoError(err)
	r.Equal(int64(5), affected)

	_, err = result.LastInsertId()
	r.Error(err)
}

func TestQueryServerError(t *testing.T) {
	r := require.New(t)

	server := proxytest.NewServer(t, proxytest.OKResponse(`{"message":"syntax error"}`))

	db := openTestDB(t, server)

	_, err := db.QueryContext(context.Background(), "SELEC 1")
	r.ErrorContains(err, "syntax error")
}

func TestBeginNotSupported(t *testing.T) {
	r := require.New(t)

	server := proxytest.NewServer(t)

	db := openTestDB(t, server)

	_, err := db.Begin()
	r.ErrorContains(err, "interactive transactions are not supported")
}
