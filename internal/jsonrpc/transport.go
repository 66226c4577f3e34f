package jsonrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// ErrInvalidJSON is returned by ReadRequest for a line that is not a JSON
// object.
var ErrInvalidJSON = errors.New("invalid JSON")

// maxLineBytes bounds a single request line.
const maxLineBytes = 8 << 20

// Transport reads requests and writes responses over a byte stream.
type Transport struct {
	scanner *bufio.Scanner
	writer  io.Writer
	writeMu sync.Mutex
}

// NewTransport wraps an io.Reader and io.Writer as a JSON-RPC transport.
// Each JSON message is expected to be a single line terminated by newline.
func NewTransport(r io.Reader, w io.Writer) *Transport {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Transport{scanner: sc, writer: w}
}

// ReadRequest reads one JSON-RPC request (newline-delimited JSON). Blank
// lines are skipped. It also returns the raw JSON bytes so callers can
// inspect the original payload.
func (t *Transport) ReadRequest() (*Request, []byte, error) {
	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		raw := append([]byte(nil), line...)
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return &req, raw, nil
	}
	if err := t.scanner.Err(); err != nil {
		return nil, nil, err
	}
	return nil, nil, io.EOF
}

// WriteResponse sends a JSON-RPC response (newline-delimited).
func (t *Transport) WriteResponse(resp *Response) error {
	return t.writeLine(resp)
}

// WriteNotification sends a JSON-RPC notification (newline-delimited).
func (t *Transport) WriteNotification(notif *Notification) error {
	return t.writeLine(notif)
}

func (t *Transport) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err = t.writer.Write(data)
	return err
}

// TCPListener listens for TCP connections and serves each with the given server.
type TCPListener struct {
	listener net.Listener
	server   *Server

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewTCPListener creates a TCP listener on the given address.
func NewTCPListener(addr string, server *Server) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return &TCPListener{listener: ln, server: server, conns: make(map[net.Conn]struct{})}, nil
}

// Addr returns the listener's network address.
func (tl *TCPListener) Addr() net.Addr {
	return tl.listener.Addr()
}

// Serve accepts connections until ctx is done or the listener is closed.
// On return every connection has been closed and its goroutine has exited.
// Cancellation is a clean shutdown and returns nil.
func (tl *TCPListener) Serve(ctx context.Context) error {
	defer tl.wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		tl.listener.Close() //nolint:errcheck
		tl.closeConns()
	}()

	for {
		conn, err := tl.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		tl.track(conn)
		tl.wg.Add(1)
		go func() {
			defer tl.wg.Done()
			defer tl.untrack(conn)
			tl.server.ServeTransport(ctx, NewTransport(conn, conn))
		}()
	}
}

// Close shuts down the TCP listener.
func (tl *TCPListener) Close() error {
	return tl.listener.Close()
}

func (tl *TCPListener) track(c net.Conn) {
	tl.mu.Lock()
	tl.conns[c] = struct{}{}
	tl.mu.Unlock()
}

func (tl *TCPListener) untrack(c net.Conn) {
	tl.mu.Lock()
	delete(tl.conns, c)
	tl.mu.Unlock()
	c.Close() //nolint:errcheck
}

func (tl *TCPListener) closeConns() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	for c := range tl.conns {
		c.Close() //nolint:errcheck
	}
}
