// Package proxy implements a client for the Neon SQL-over-HTTP proxy
// (https://github.com/neondatabase/neon/tree/main/proxy). SQL statements are
// serialized as JSON, POSTed to the proxy over a caller-supplied transport
// and the JSON response document is exposed through typed accessors. The
// proxy converts between SQL over HTTP and the postgres wire protocol, so
// any PostgreSQL database behind a Neon proxy works as a backend.
package proxy

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort    = 443
	DefaultTimeout = 20 * time.Second

	requestPath      = "/sql"
	connStringHeader = "Neon-Connection-String"
)

// Dialer opens the connection for a single exchange. It is typically a
// *tls.Dialer, but any transport works - TLS configuration is the
// caller's concern.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client executes SQL statements against a remote PostgreSQL database by
// tunneling them through the proxy. One exchange is in flight at a time;
// the caller must serialize calls.
type Client struct {
	dialer  Dialer
	connStr string
	host    string
	port    int
	timeout time.Duration
	logger  Logger

	request  QueryRequest
	response QueryResult

	txnRequest  TransactionRequest
	txnResponse TransactionResult
}

type Option func(*Client)

// WithDialer sets the transport used to reach the proxy.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) { c.dialer = dialer }
}

// WithPort overrides the proxy port (default 443).
func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

// WithTimeout sets the default exchange timeout, used when the passed
// context carries no deadline of its own.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithLogger sets an optional logger which receives a QueryLog per exchange.
func WithLogger(logger Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the proxy at proxyHost. The connection string
// identifies the backing database and is forwarded verbatim as the
// Neon-Connection-String header.
func New(connString, proxyHost string, opts ...Option) *Client {
	c := &Client{
		dialer:  &tls.Dialer{},
		connStr: connString,
		host:    proxyHost,
		port:    DefaultPort,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.request.Params = &Params{}

	return c
}

// SetQuery stores the SQL text for the next Execute call. The text may use
// positional parameter markers ($1, $2, ...); matching values are supplied
// through Params. No SQL validation happens on the client.
func (c *Client) SetQuery(query string) {
	c.request.Query = query
}

// Params returns the mutable parameter handle of the pending statement.
// The handle stays valid across executions, so a caller can clear and
// refill it between calls.
func (c *Client) Params() *Params {
	if c.request.Params == nil {
		c.request.Params = &Params{}
	}
	return c.request.Params
}

// StartTransaction resets the pending transaction batch and its last
// response. Call it before adding statements for a new batch.
func (c *Client) StartTransaction() {
	c.txnRequest = TransactionRequest{Queries: []*QueryRequest{}}
	c.txnResponse = TransactionResult{}
}

// AddQueryToTransaction appends a statement to the pending transaction
// batch with an empty parameter list.
func (c *Client) AddQueryToTransaction(query string) {
	c.txnRequest.Queries = append(c.txnRequest.Queries, &QueryRequest{
		Query:  query,
		Params: &Params{},
	})
}

// ParamsForTransactionQuery returns the parameter handle of the index-th
// statement in the pending batch. An out-of-range index returns an empty
// handle whose mutations do not affect the batch.
func (c *Client) ParamsForTransactionQuery(index int) *Params {
	if index < 0 || index >= len(c.txnRequest.Queries) {
		return &Params{}
	}
	return c.txnRequest.Queries[index].Params
}

// Execute sends the statement set with SetQuery and parses the result.
// The context deadline bounds the whole exchange; without one the
// client's default timeout applies.
func (c *Client) Execute(ctx context.Context) error {
	defer c.sendOperationStats(time.Now(), "Execute", c.request.Query)
	return c.roundTrip(ctx, &c.request, &c.response)
}

// ExecuteTransaction sends the statements added with AddQueryToTransaction
// as one atomic batch and parses the per-statement results.
func (c *Client) ExecuteTransaction(ctx context.Context) error {
	defer c.sendOperationStats(time.Now(), "ExecuteTransaction",
		fmt.Sprintf("%d statements", len(c.txnRequest.Queries)))

	if c.txnRequest.Queries == nil {
		c.txnRequest.Queries = []*QueryRequest{}
	}
	return c.roundTrip(ctx, &c.txnRequest, &c.txnResponse)
}

// roundTrip performs one complete exchange: connect, emit the HTTP request,
// await the response, validate the status line and decode the body into dst.
// The connection is closed on every exit path. dst is overwritten only once
// a body is actually being parsed, so earlier results stay inspectable after
// transport-level failures.
func (c *Client) roundTrip(ctx context.Context, payload any, dst document) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return fmt.Errorf("cannot connect to proxy: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	var head bytes.Buffer
	fmt.Fprintf(&head, "POST %s HTTP/1.1\r\n", requestPath)
	fmt.Fprintf(&head, "Host: %s\r\n", c.host)
	fmt.Fprintf(&head, "%s: %s\r\n", connStringHeader, c.connStr)
	head.WriteString("Content-Type: application/json\r\n")
	fmt.Fprintf(&head, "Content-Length: %d\r\n\r\n", len(body))

	if _, err := conn.Write(head.Bytes()); err != nil {
		return exchangeError(err)
	}

	written, err := conn.Write(body)
	if err != nil {
		return exchangeError(err)
	}
	if written != len(body) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrPayloadMismatch, written, len(body))
	}

	reader := bufio.NewReader(conn)
	tp := textproto.NewReader(reader)

	statusLine, err := tp.ReadLine()
	if err != nil {
		return exchangeError(err)
	}

	code, err := parseStatusLine(statusLine)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return &StatusError{Code: code, Line: statusLine}
	}

	if _, err := tp.ReadMIMEHeader(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	dst.reset()
	if err := json.NewDecoder(reader).Decode(dst); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	if msg := dst.message(); msg != "" {
		return &ServerError{Message: msg}
	}

	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// exchangeError maps transport errors to the client error taxonomy.
func exchangeError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrQueryTimeout, err)
	}
	return err
}

// parseStatusLine extracts the status code from a line such as
// "HTTP/1.1 200 OK".
func parseStatusLine(line string) (int, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return 0, fmt.Errorf("%w: malformed status line %q", ErrInvalidResponse, line)
	}

	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed status code %q", ErrInvalidResponse, parts[1])
	}

	return code, nil
}

// RowCount returns the number of rows returned - or affected, for DML
// statements - by the last executed statement.
func (c *Client) RowCount() int {
	return c.response.RowCount
}

// Rows returns the rows of the last executed statement. Each row maps
// column name to value.
func (c *Client) Rows() []map[string]any {
	return c.response.Rows
}

// Fields returns the column descriptors of the last executed statement.
func (c *Client) Fields() []Field {
	return c.response.Fields
}

// Result returns the complete last response document. Mostly useful for
// debugging; prefer Rows, Fields and RowCount.
func (c *Client) Result() *QueryResult {
	return &c.response
}

func (c *Client) txnResult(index int) *QueryResult {
	if index < 0 || index >= len(c.txnResponse.Results) {
		return nil
	}
	return c.txnResponse.Results[index]
}

// RowsForTransactionQuery returns the rows of the index-th statement of the
// last executed transaction, or nil if the index is out of range.
func (c *Client) RowsForTransactionQuery(index int) []map[string]any {
	result := c.txnResult(index)
	if result == nil {
		return nil
	}
	return result.Rows
}

// RowCountForTransactionQuery returns the row count of the index-th
// statement of the last executed transaction, or -1 if the index is out
// of range.
func (c *Client) RowCountForTransactionQuery(index int) int {
	result := c.txnResult(index)
	if result == nil {
		return -1
	}
	return result.RowCount
}

// FieldsForTransactionQuery returns the column descriptors of the index-th
// statement of the last executed transaction, or nil if the index is out
// of range.
func (c *Client) FieldsForTransactionQuery(index int) []Field {
	result := c.txnResult(index)
	if result == nil {
		return nil
	}
	return result.Fields
}

// TransactionResults returns the complete last transaction response
// document.
func (c *Client) TransactionResults() *TransactionResult {
	return &c.txnResponse
}

// WriteResult dumps the last response document as JSON, for debugging.
func (c *Client) WriteResult(writer io.Writer) error {
	return json.NewEncoder(writer).Encode(&c.response)
}

// WriteTransactionResult dumps the last transaction response document as
// JSON, for debugging.
func (c *Client) WriteTransactionResult(writer io.Writer) error {
	return json.NewEncoder(writer).Encode(&c.txnResponse)
}
