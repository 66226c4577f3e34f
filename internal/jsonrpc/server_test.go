package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/spboyer/topsis/internal/topsis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, registry *MethodRegistry, input string) []Response {
	t.Helper()
	var out bytes.Buffer
	NewServer(registry, nil).ServeStdio(context.Background(), strings.NewReader(input), &out)

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp), line)
		responses = append(responses, resp)
	}
	return responses
}

func pingRegistry(calls *int) *MethodRegistry {
	registry := NewMethodRegistry()
	registry.Register("ping", "Reply with pong", func(context.Context, json.RawMessage) (any, *Error) {
		*calls++
		return map[string]string{"pong": "ok"}, nil
	})
	return registry
}

func TestServer_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  int
	}{
		{"method not found", `{"jsonrpc":"2.0","method":"nonexistent","id":1}`, CodeMethodNotFound},
		{"invalid json", `{not valid json}`, CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","method":"ping","id":1}`, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			responses := serve(t, pingRegistry(&calls), tt.input+"\n")
			require.Len(t, responses, 1)
			require.NotNil(t, responses[0].Error)
			assert.Equal(t, tt.code, responses[0].Error.Code)
			assert.Equal(t, "2.0", responses[0].JSONRPC)
			assert.Zero(t, calls)
		})
	}
}

func TestServer_ParseErrorStopsServing(t *testing.T) {
	var calls int
	input := "{broken\n" + `{"jsonrpc":"2.0","method":"ping","id":2}` + "\n"
	responses := serve(t, pingRegistry(&calls), input)
	require.Len(t, responses, 1)
	assert.Equal(t, "null", string(responses[0].ID))
	assert.Zero(t, calls)
}

func TestServer_RequestsNotificationsAndBlankLines(t *testing.T) {
	var calls int
	input := `{"jsonrpc":"2.0","method":"ping","id":1}` + "\n" +
		"\n" +
		`{"jsonrpc":"2.0","method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","method":"nonexistent"}` + "\n" +
		`{"jsonrpc":"2.0","method":"ping","id":"two"}` + "\n"
	responses := serve(t, pingRegistry(&calls), input)

	assert.Equal(t, 3, calls, "notifications still invoke the handler")
	require.Len(t, responses, 2, "notifications get no response")
	assert.Equal(t, "1", string(responses[0].ID))
	assert.Equal(t, `"two"`, string(responses[1].ID))
}

func TestServer_NullIDIsARequest(t *testing.T) {
	var calls int
	responses := serve(t, pingRegistry(&calls), `{"jsonrpc":"2.0","method":"ping","id":null}`+"\n")
	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Error)
}

func TestServer_HandlerErrorAndNotify(t *testing.T) {
	registry := NewMethodRegistry()
	registry.Register("fail", "", func(ctx context.Context, _ json.RawMessage) (any, *Error) {
		Notify(ctx, "fail.progress", map[string]int{"step": 1})
		return nil, ErrInternalError("something broke")
	})

	var out bytes.Buffer
	NewServer(registry, nil).ServeStdio(context.Background(),
		strings.NewReader(`{"jsonrpc":"2.0","method":"fail","id":1}`+"\n"), &out)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var notif Notification
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &notif))
	assert.Equal(t, "fail.progress", notif.Method)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, "Internal error", resp.Error.Message)
}

func TestNotify_OutsideHandler(t *testing.T) {
	assert.NotPanics(t, func() { Notify(context.Background(), "x", nil) })
}

func TestServer_StopsWhenContextDone(t *testing.T) {
	var calls int
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	NewServer(pingRegistry(&calls), nil).ServeStdio(ctx,
		strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}`+"\n"), &out)
	assert.Zero(t, calls)
	assert.Empty(t, out.String())
}

func TestTransport_ReadRequest(t *testing.T) {
	tr := NewTransport(strings.NewReader("\n"+`{"jsonrpc":"2.0","method":"m","id":3}`+"\n[1,2]\n"), &bytes.Buffer{})

	req, raw, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "m", req.Method)
	assert.True(t, hasIDField(raw))

	_, _, err = tr.ReadRequest()
	assert.True(t, errors.Is(err, ErrInvalidJSON))

	_, _, err = tr.ReadRequest()
	assert.Equal(t, "EOF", err.Error())
}

func TestTransport_WriteNotification(t *testing.T) {
	var buf bytes.Buffer
	transport := NewTransport(strings.NewReader(""), &buf)

	require.NoError(t, transport.WriteNotification(&Notification{
		JSONRPC: "2.0",
		Method:  ProgressMethod,
		Params:  &ProgressParams{Done: 5, Total: 10},
	}))

	assert.Equal(t, `{"jsonrpc":"2.0","method":"problem.sensitivity.progress","params":{"done":5,"total":10}}`+"\n", buf.String())
}

func TestMethodRegistry(t *testing.T) {
	reg := NewMethodRegistry()

	assert.Nil(t, reg.Lookup("test"))
	assert.Empty(t, reg.Methods())

	noop := func(context.Context, json.RawMessage) (any, *Error) { return nil, nil }
	reg.Register("z.last", "Last", noop)
	reg.Register("a.first", "First", noop)

	assert.NotNil(t, reg.Lookup("a.first"))
	assert.Nil(t, reg.Lookup("other"))
	assert.Equal(t, []MethodInfo{{Name: "a.first", Summary: "First"}, {Name: "z.last", Summary: "Last"}}, reg.Methods())
}

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		err  *Error
		code int
		msg  string
	}{
		{ErrParseError("bad"), CodeParseError, "Parse error"},
		{ErrInvalidRequest("bad"), CodeInvalidRequest, "Invalid request"},
		{ErrMethodNotFound("x"), CodeMethodNotFound, "Method not found"},
		{ErrInvalidParams("bad"), CodeInvalidParams, "Invalid params"},
		{ErrInternalError("bad"), CodeInternalError, "Internal error"},
		{ErrNotFound("x"), CodeNotFound, "Problem not found"},
		{ErrValidationFailed("bad"), CodeValidationFailed, "Validation failed"},
		{ErrDegenerateInput("bad"), CodeDegenerateInput, "Degenerate input"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
		assert.Equal(t, tt.msg, tt.err.Message)
		assert.Equal(t, tt.msg, tt.err.Error())
	}
}

func TestErrFromEngine(t *testing.T) {
	assert.Equal(t, CodeValidationFailed, ErrFromEngine(&topsis.InvalidInputError{Field: "weights", Reason: "x"}).Code)
	assert.Equal(t, CodeDegenerateInput, ErrFromEngine(fmt.Errorf("wrapped: %w", &topsis.DegenerateColumnError{Column: 2})).Code)
	assert.Equal(t, CodeInternalError, ErrFromEngine(errors.New("disk full")).Code)
}

func TestTCPListener_ServeAndShutdown(t *testing.T) {
	defer leaktest.Check(t)()

	var calls int
	listener, err := NewTCPListener("127.0.0.1:0", NewServer(pingRegistry(&calls), nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Serve(ctx) }()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	_, err = fmt.Fprintln(conn, `{"jsonrpc":"2.0","method":"ping","id":7}`)
	require.NoError(t, err)
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"pong":"ok"`)
	assert.Contains(t, line, `"id":7`)

	// The connection is still open; shutdown must close it.
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
