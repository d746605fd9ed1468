package rpcproto

import (
	"bufio"
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Command: CommandScan, DryRun: true}
	if err := WriteFrame(&buf, req); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	var got Request
	if err := ReadFrame(bufio.NewReader(&buf), &got); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got != req {
		t.Fatalf("got %+v, want %+v", got, req)
	}
}

func TestFrameRoundTripResponse(t *testing.T) {
	var buf bytes.Buffer
	resp := Response{OK: true, State: "running", ScannedAdd: []string{"/a/node_modules"}}
	if err := WriteFrame(&buf, resp); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	var got Response
	if err := ReadFrame(bufio.NewReader(&buf), &got); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.State != resp.State || len(got.ScannedAdd) != 1 || got.ScannedAdd[0] != resp.ScannedAdd[0] {
		t.Fatalf("got %+v, want %+v", got, resp)
	}
}
