package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type (
	CallID string

	// Call is a single statement execution. It runs in the background and
	// reports its progress through state events.
	Call struct {
		id        CallID
		query     string
		state     CallState
		timeTaken time.Duration
		timestamp time.Time

		result     *Result
		cancelFunc func()

		// any error that might occur during execution
		err  error
		done chan struct{}
	}
)

func (c *Call) MarshalJSON() ([]byte, error) {
	errMsg := ""
	if c.err != nil {
		errMsg = c.err.Error()
	}

	return json.Marshal(struct {
		ID        string `json:"id"`
		Query     string `json:"query"`
		State     string `json:"state"`
		TimeTaken int64  `json:"time_taken_us"`
		Timestamp int64  `json:"timestamp_us"`
		Error     string `json:"error,omitempty"`
	}{
		ID:        string(c.id),
		Query:     c.query,
		State:     c.state.String(),
		TimeTaken: c.timeTaken.Microseconds(),
		Timestamp: c.timestamp.UnixMicro(),
		Error:     errMsg,
	})
}

func newCallFromExecutor(executor func(context.Context) (ResultStream, error), query string, onEvent func(CallState, *Call)) *Call {
	c := &Call{
		id:    CallID(uuid.New().String()),
		query: query,
		state: CallStateUnknown,

		result: new(Result),

		done: make(chan struct{}),
	}

	eventsCh := make(chan CallState, 10)

	ctx, cancel := context.WithCancel(context.Background())
	c.timestamp = time.Now()
	c.cancelFunc = func() {
		cancel()
		c.timeTaken = time.Since(c.timestamp)
		eventsCh <- CallStateCanceled
	}

	// event function handler
	go func() {
		for state := range eventsCh {
			if c.state == CallStateExecutingFailed ||
				c.state == CallStateRetrievingFailed ||
				c.state == CallStateCanceled {
				return
			}
			c.state = state

			// trigger event callback
			if onEvent != nil {
				onEvent(state, c)
			}
		}
	}()

	go func() {
		defer close(eventsCh)

		// execute the function
		eventsCh <- CallStateExecuting
		iter, err := executor(ctx)
		if err != nil {
			c.timeTaken = time.Since(c.timestamp)
			c.err = err
			eventsCh <- CallStateExecutingFailed
			close(c.done)
			return
		}

		// drain the iterator into the result
		err = c.result.SetIter(iter, func() { eventsCh <- CallStateRetrieving })
		if err != nil {
			c.timeTaken = time.Since(c.timestamp)
			c.err = err
			eventsCh <- CallStateRetrievingFailed
			close(c.done)
			return
		}

		c.timeTaken = time.Since(c.timestamp)
		eventsCh <- CallStateRetrieved
		close(c.done)
	}()

	return c
}

func (c *Call) GetID() CallID {
	return c.id
}

func (c *Call) GetQuery() string {
	return c.query
}

func (c *Call) GetState() CallState {
	return c.state
}

func (c *Call) GetTimeTaken() time.Duration {
	return c.timeTaken
}

func (c *Call) GetTimestamp() time.Time {
	return c.timestamp
}

func (c *Call) Err() error {
	return c.err
}

// Done returns a non-buffered channel that is closed when
// call finishes.
func (c *Call) Done() chan struct{} {
	return c.done
}

func (c *Call) Cancel() {
	if c.state > CallStateExecuting {
		return
	}
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *Call) GetResult() (*Result, error) {
	return c.result, nil
}
