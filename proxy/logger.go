package proxy

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Logger can be injected into a Client to observe executed exchanges.
type Logger interface {
	Debug(args ...any)
}

// QueryLog is the record passed to the logger for every exchange.
type QueryLog struct {
	Type     string `json:"type"`
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
}

var whitespace = regexp.MustCompile(`\s+`)

func (l *QueryLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "%-20s %8dµs %s\n", l.Type, l.Duration, l.Query)
}

func clean(query string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
}

func (c *Client) sendOperationStats(start time.Time, queryType, query string) {
	if c.logger == nil {
		return
	}

	c.logger.Debug(&QueryLog{
		Type:     queryType,
		Query:    clean(query),
		Duration: time.Since(start).Microseconds(),
	})
}
