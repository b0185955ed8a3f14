// Package oxidbtest runs an in-process server speaking the OxiDB framing,
// answering each request with a caller-supplied handler.
package oxidbtest

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
)

// HandlerFunc returns the "data" of a successful response, or an error whose
// message becomes the response's "error".
type HandlerFunc func(req map[string]any) (any, error)

type Server struct {
	ln      net.Listener
	handler HandlerFunc

	mu       sync.Mutex
	requests []map[string]any
}

// New starts a server on a loopback port. It is closed with t.Cleanup.
func New(t testing.TB, h HandlerFunc) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("oxidbtest: listen: %v", err)
	}
	s := &Server{ln: ln, handler: h}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request whose cmd matches, or nil.
func (s *Server) Last(cmd string) map[string]any {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i]["cmd"] == cmd {
			return reqs[i]
		}
	}
	return nil
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(conn, lenBuf); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(lenBuf))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(payload, &req); err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		resp := map[string]any{"ok": true}
		data, err := s.handler(req)
		if err != nil {
			resp = map[string]any{"ok": false, "error": err.Error()}
		} else {
			resp["data"] = data
		}
		out, _ := json.Marshal(resp)
		frame := make([]byte, 4+len(out))
		binary.LittleEndian.PutUint32(frame, uint32(len(out)))
		copy(frame[4:], out)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}
