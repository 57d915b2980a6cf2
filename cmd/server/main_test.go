package main

import (
	"bytes"
	"strings"
	"testing"

	"faceatt/internal/attendance"
)

func TestWriteEmployeeCSV(t *testing.T) {
	users := []attendance.User{
		{ID: 1, Name: "alice", Section: "Section A"},
		{ID: 2, Name: "bob"},
	}

	var buf bytes.Buffer
	if err := writeEmployeeCSV(&buf, users); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ID,Name,Section" {
		t.Fatalf("bad header: %q", lines[0])
	}
	if lines[1] != "1,alice,Section A" {
		t.Fatalf("bad row: %q", lines[1])
	}
	if lines[2] != "2,bob," {
		t.Fatalf("bad row for sectionless user: %q", lines[2])
	}
}

func TestDecodeDataURL(t *testing.T) {
	raw, err := decodeDataURL("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw) != "hello" {
		t.Fatalf("got %q", raw)
	}

	raw, err = decodeDataURL("aGVsbG8=")
	if err != nil {
		t.Fatalf("decode raw base64: %v", err)
	}
	if string(raw) != "hello" {
		t.Fatalf("got %q", raw)
	}

	if _, err := decodeDataURL("not base64!!"); err == nil {
		t.Fatal("expected error for invalid data")
	}
}
