package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLine bounds a single request line.
const maxLine = 1 << 20

// Request is one JSON-encoded call.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Args   map[string]any  `json:"args,omitempty"`
}

// Response is one JSON-encoded result.
type Response struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Outcome Outcome         `json:"outcome"`
	Value   any             `json:"value"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Details any             `json:"details,omitempty"`
}

// NewResponse converts a Result for the wire.
func NewResponse(id json.RawMessage, r Result) Response {
	return Response{
		ID:      id,
		Outcome: r.Outcome,
		Value:   r.Value,
		Code:    r.Code,
		Message: r.Message,
		Details: r.Details,
	}
}

// Serve reads newline-delimited requests from r and writes one response
// per request to w, in order. Blank lines are ignored. A line longer than
// maxLine is answered with BAD_REQUEST and skipped. It returns nil at EOF and
// ctx.Err() as soon as ctx is done, even while r is blocked; the reading
// goroutine then exits at its next read.
func (c *Channel) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		readErr <- readLines(r, lines, done)
		close(lines)
	}()

	enc := json.NewEncoder(w)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var in inputLine
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return <-readErr
			}
			in = l
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(in.text)
		var resp Response
		switch {
		case in.tooLong:
			resp = NewResponse(nil, Failure(CodeBadRequest, fmt.Sprintf("request exceeds %d bytes", maxLine), nil))
		case line == "":
			continue
		default:
			resp = c.Handle(ctx, []byte(line))
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

type inputLine struct {
	text    string
	tooLong bool
}

// readLines splits r into lines and sends them on out until EOF, a read
// error or done. The bytes of an overlong line are discarded up to its
// newline so the next request is read intact.
func readLines(r io.Reader, out chan<- inputLine, done <-chan struct{}) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		var (
			buf     []byte
			tooLong bool
		)
		for {
			chunk, isPrefix, err := br.ReadLine()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			if !tooLong {
				if len(buf)+len(chunk) > maxLine {
					tooLong, buf = true, nil
				} else {
					buf = append(buf, chunk...)
				}
			}
			if !isPrefix {
				break
			}
		}

		select {
		case out <- inputLine{text: string(buf), tooLong: tooLong}:
		case <-done:
			return nil
		}
	}
}

// Handle decodes one JSON request and invokes it. Malformed requests answer
// BAD_REQUEST without reaching a handler.
func (c *Channel) Handle(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return NewResponse(nil, Failure(CodeBadRequest, err.Error(), nil))
	}
	if req.Method == "" {
		return NewResponse(req.ID, Failure(CodeBadRequest, "missing method", nil))
	}
	return NewResponse(req.ID, c.Invoke(ctx, Call{Method: req.Method, Args: req.Args}))
}
