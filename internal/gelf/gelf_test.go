package gelf

import (
	"encoding/json"
	"net"
	"testing"
	"time"
)

func TestWriteLevelsAndPrefixStripping(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	w, err := New(conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line      string
		wantShort string
		wantLevel float64
	}{
		{"2026/08/31 12:00:00 Gateway starting on :8080\n", "Gateway starting on :8080", 6},
		{"2026/08/31 12:00:00 Warning: session restore failed: disk\n", "Warning: session restore failed: disk", 4},
		{"2026/08/31 12:00:00 PANIC: GET /api/v1/slots: boom\n", "PANIC: GET /api/v1/slots: boom", 3},
		{"2026/08/31 12:00:00 Server failed: listen tcp: address in use\n", "Server failed: listen tcp: address in use", 3},
	}
	for _, tt := range tests {
		if _, err := w.Write([]byte(tt.line)); err != nil {
			t.Fatalf("Write(%q): %v", tt.line, err)
		}

		buf := make([]byte, 4096)
		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(buf[:n], &msg); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if msg["short_message"] != tt.wantShort {
			t.Errorf("short_message = %q, want %q", msg["short_message"], tt.wantShort)
		}
		if msg["level"] != tt.wantLevel {
			t.Errorf("%q: level = %v, want %v", tt.wantShort, msg["level"], tt.wantLevel)
		}
	}
}
