package signaling

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMessage_Response(t *testing.T) {
	raw := []byte(`{"type":"response","text":"Great! What habit today?","audio":"AQID","user_text":"Hello Bobo"}`)

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	if msg.Type != TypeResponse {
		t.Errorf("Type = %q; want %q", msg.Type, TypeResponse)
	}
	if msg.Text != "Great! What habit today?" {
		t.Errorf("Text = %q", msg.Text)
	}
	if msg.UserText != "Hello Bobo" {
		t.Errorf("UserText = %q", msg.UserText)
	}
	if string(msg.Audio) != "\x01\x02\x03" {
		t.Errorf("Audio = %v; want [1 2 3]", msg.Audio)
	}
}

func TestParseMessage_Goodbye(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"goodbye","text":"Bye for now!","audio":"BAU="}`))
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	if msg.Type != TypeGoodbye || msg.Text != "Bye for now!" || len(msg.Audio) != 2 {
		t.Errorf("unexpected goodbye: %+v", msg)
	}
}

func TestParseMessage_End(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"end"}`))
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	if msg.Type != TypeEnd {
		t.Errorf("Type = %q; want end", msg.Type)
	}
}

func TestParseMessage_UnrecognizedTag(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"interrupt"}`))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v; want *ProtocolError", err)
	}
	if perr.Tag != "interrupt" {
		t.Errorf("Tag = %q; want interrupt", perr.Tag)
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":`))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v; want *ProtocolError", err)
	}
}

func TestParseMessage_BadAudioPayload(t *testing.T) {
	_, err := ParseMessage([]byte(`{"type":"response","text":"hi","audio":"%%%"}`))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v; want *ProtocolError", err)
	}
}

func TestMessage_MarshalAudio(t *testing.T) {
	msg := NewAudio([]byte{1, 2, 3}, "audio/pcm;rate=16000")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var f map[string]any
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if f["type"] != "audio" {
		t.Errorf("type = %v; want audio", f["type"])
	}
	if f["audio"] != "AQID" {
		t.Errorf("audio = %v; want AQID", f["audio"])
	}
	if f["format"] != "audio/pcm;rate=16000" {
		t.Errorf("format = %v", f["format"])
	}
}

func TestMessage_MarshalEnd(t *testing.T) {
	data, err := json.Marshal(NewEnd())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"type":"end"}` {
		t.Errorf("Marshal = %s; want {\"type\":\"end\"}", data)
	}
}

func TestMessage_MarshalUnknownType(t *testing.T) {
	_, err := json.Marshal(&Message{Type: Type("bogus")})
	if err == nil {
		t.Fatal("Marshal of unknown type succeeded; want error")
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	orig := NewAudio([]byte("pcm bytes"), "audio/pcm;rate=16000")
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	restored, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	if restored.Type != orig.Type || string(restored.Audio) != string(orig.Audio) || restored.Format != orig.Format {
		t.Errorf("round trip mismatch: %+v vs %+v", restored, orig)
	}
}
