package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestGTPBoardsizeReplies(t *testing.T) {
	var out bytes.Buffer
	g := NewGTP(newBotFactory())
	g.out = &out

	g.Run(strings.NewReader("boardsize 9\nquit\n"))
	if !strings.HasPrefix(out.String(), "= ") {
		t.Fatalf("expected a '= ' success reply, got %q", out.String())
	}
}

func TestGTPPlayAndGenmove(t *testing.T) {
	var out bytes.Buffer
	g := NewGTP(newBotFactory())
	g.out = &out

	g.Run(strings.NewReader("boardsize 9\nplay b E5\ngenmove w\nquit\n"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n\n")
	if len(lines) < 2 {
		t.Fatalf("expected multiple GTP replies, got %q", out.String())
	}
	for _, l := range lines {
		if strings.HasPrefix(l, "?") {
			t.Fatalf("unexpected error reply: %q", l)
		}
	}
}

func TestGTPVertexRoundTrip(t *testing.T) {
	x, y, ok := parseGTPVertex("D4", 9)
	if !ok {
		t.Fatal("expected D4 to parse")
	}
	s := formatGTPVertex(x, y, 9)
	if s != "D4" {
		t.Fatalf("round trip mismatch: got %q", s)
	}
}

func TestGTPUnknownCommandRepliesError(t *testing.T) {
	var out bytes.Buffer
	g := NewGTP(newBotFactory())
	g.out = &out

	g.Run(strings.NewReader("bogus_command\nquit\n"))
	if !strings.Contains(out.String(), "?") {
		t.Fatalf("expected an error reply for unknown command, got %q", out.String())
	}
}
