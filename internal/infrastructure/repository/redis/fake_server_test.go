package redis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeServer speaks just enough RESP2 for the slot: PING, GET and SET
type fakeServer struct {
	ln   net.Listener
	mu   sync.Mutex
	data map[string][]byte
}

func startFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeServer{ln: ln, data: make(map[string][]byte)}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	return f
}

func (f *fakeServer) addr() string {
	return f.ln.Addr().String()
}

func (f *fakeServer) value(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeServer) serve(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if _, err := conn.Write(f.reply(args)); err != nil {
			return
		}
	}
}

func (f *fakeServer) reply(args [][]byte) []byte {
	if len(args) == 0 {
		return []byte("-ERR empty command\r\n")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToUpper(string(args[0])) {
	case "PING":
		return []byte("+PONG\r\n")
	case "GET":
		v, ok := f.data[string(args[1])]
		if !ok {
			return []byte("$-1\r\n")
		}
		return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(v), v))
	case "SET":
		f.data[string(args[1])] = append([]byte(nil), args[2]...)
		return []byte("+OK\r\n")
	}
	return []byte(fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0]))
}

// readCommand reads one RESP array of bulk strings
func readCommand(r *bufio.Reader) ([][]byte, error) {
	n, err := readHeader(r, '*')
	if err != nil {
		return nil, err
	}

	args := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		size, err := readHeader(r, '$')
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, buf[:size])
	}
	return args, nil
}

func readHeader(r *bufio.Reader, prefix byte) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 2 || line[0] != prefix {
		return 0, errors.New("malformed RESP header")
	}
	return strconv.Atoi(line[1:])
}
