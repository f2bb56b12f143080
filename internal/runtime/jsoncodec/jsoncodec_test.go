package jsoncodec

import (
	"bytes"
	"strings"
	"testing"
)

type envelope struct {
	ChannelID string `json:"channel_id"`
	DelayMs   int64  `json:"delay_ms"`
}

func TestMarshalAndUnmarshal(t *testing.T) {
	in := envelope{ChannelID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", DelayMs: 50}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out envelope
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out != in {
		t.Fatalf("expected round trip to match, got %#v", out)
	}

	indented, err := MarshalIndent(in, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent failed: %v", err)
	}
	if !strings.Contains(string(indented), "\n  \"channel_id\"") {
		t.Fatalf("expected indented output, got %s", string(indented))
	}
}

func TestEncodeAndDecode(t *testing.T) {
	buf := &bytes.Buffer{}
	in := envelope{ChannelID: "01BX5ZZKBKACTAV9WEVGEMMVS0", DelayMs: 80}

	if err := Encode(buf, in); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var out envelope
	if err := Decode(buf, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != in {
		t.Fatalf("expected round trip to match, got %#v", out)
	}
}
