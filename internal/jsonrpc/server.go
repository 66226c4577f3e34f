package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
)

// Server handles JSON-RPC 2.0 requests over a Transport.
type Server struct {
	registry *MethodRegistry
	logger   *slog.Logger
}

// NewServer creates a JSON-RPC server with the given method registry.
func NewServer(registry *MethodRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{registry: registry, logger: logger}
}

type notifierKey struct{}

// Notify sends a notification to the client whose request is being handled.
// It is a no-op outside a handler.
func Notify(ctx context.Context, method string, params any) {
	t, ok := ctx.Value(notifierKey{}).(*Transport)
	if !ok {
		return
	}
	t.WriteNotification(&Notification{JSONRPC: "2.0", Method: method, Params: params}) //nolint:errcheck
}

// ServeTransport reads requests from the transport and writes responses.
// It runs until the reader returns io.EOF, a read error occurs or ctx is
// done. Requests are handled one at a time, in order.
func (s *Server) ServeTransport(ctx context.Context, t *Transport) {
	ctx = context.WithValue(ctx, notifierKey{}, t)

	for ctx.Err() == nil {
		req, rawJSON, err := t.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			s.logger.Debug("read error", "error", err)
			if !errors.Is(err, ErrInvalidJSON) {
				return
			}
			resp := &Response{
				JSONRPC: "2.0",
				Error:   ErrParseError(err.Error()),
				ID:      json.RawMessage("null"),
			}
			if writeErr := t.WriteResponse(resp); writeErr != nil {
				s.logger.Debug("write error", "error", writeErr)
			}
			return
		}

		// Per JSON-RPC 2.0, notifications (no "id" key) MUST NOT receive a response.
		isNotification := !hasIDField(rawJSON)

		resp := s.handle(ctx, req)
		if isNotification {
			continue
		}
		if writeErr := t.WriteResponse(resp); writeErr != nil {
			s.logger.Debug("write error", "error", writeErr)
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, req *Request) *Response {
	resp := &Response{JSONRPC: "2.0", ID: req.ID}

	if req.JSONRPC != "2.0" {
		resp.Error = ErrInvalidRequest("jsonrpc field must be \"2.0\"")
		return resp
	}

	handler := s.registry.Lookup(req.Method)
	if handler == nil {
		resp.Error = ErrMethodNotFound(req.Method)
		return resp
	}

	s.logger.Debug("handling request", "method", req.Method)
	result, rpcErr := handler(ctx, req.Params)
	if rpcErr != nil {
		s.logger.Debug("request failed", "method", req.Method, "code", rpcErr.Code, "error", rpcErr.Message)
		resp.Error = rpcErr
		return resp
	}
	resp.Result = result
	return resp
}

// hasIDField checks whether the raw JSON contains an "id" key at the top level.
func hasIDField(raw []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	_, exists := obj["id"]
	return exists
}

// ServeStdio runs the server on stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context, stdin io.Reader, stdout io.Writer) {
	s.ServeTransport(ctx, NewTransport(stdin, stdout))
}
