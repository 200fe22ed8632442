package signaling

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Type is the tag of a protocol message.
type Type string

const (
	// TypeAudio carries one captured audio segment, client to server.
	TypeAudio Type = "audio"

	// TypeResponse carries the agent's reply, server to client.
	TypeResponse Type = "response"

	// TypeGoodbye is the agent's final message before the server closes.
	TypeGoodbye Type = "goodbye"

	// TypeEnd is the client's explicit termination notice.
	TypeEnd Type = "end"
)

// Message is a protocol message. Which fields are meaningful depends on
// Type; use the constructors to build outgoing messages.
type Message struct {
	Type Type

	// Audio is the raw audio payload (base64-encoded on the wire).
	// Set for audio, response, and goodbye messages.
	Audio []byte

	// Format is the mime type of Audio. Set for audio messages only.
	Format string

	// Text is the agent's utterance. Set for response and goodbye messages.
	Text string

	// UserText is the server's transcription of the user's last segment.
	// Optionally set on response messages.
	UserText string
}

// NewAudio builds an audio message from one captured segment.
func NewAudio(audio []byte, format string) *Message {
	return &Message{Type: TypeAudio, Audio: audio, Format: format}
}

// NewEnd builds an end message.
func NewEnd() *Message {
	return &Message{Type: TypeEnd}
}

// ProtocolError reports a malformed or unrecognized protocol frame.
type ProtocolError struct {
	// Tag is the offending frame tag, if one could be read.
	Tag string

	// Message is the human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("signaling: %s: %q", e.Message, e.Tag)
	}
	return "signaling: " + e.Message
}

// frame is the JSON wire representation of a Message.
type frame struct {
	Type     string `json:"type"`
	Audio    string `json:"audio,omitempty"`
	Format   string `json:"format,omitempty"`
	Text     string `json:"text,omitempty"`
	UserText string `json:"user_text,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *Message) MarshalJSON() ([]byte, error) {
	f := frame{Type: string(m.Type)}
	switch m.Type {
	case TypeAudio:
		f.Audio = base64.StdEncoding.EncodeToString(m.Audio)
		f.Format = m.Format
	case TypeResponse:
		f.Text = m.Text
		f.UserText = m.UserText
		f.Audio = base64.StdEncoding.EncodeToString(m.Audio)
	case TypeGoodbye:
		f.Text = m.Text
		f.Audio = base64.StdEncoding.EncodeToString(m.Audio)
	case TypeEnd:
	default:
		return nil, &ProtocolError{Tag: string(m.Type), Message: "cannot encode message type"}
	}
	return json.Marshal(f)
}

// ParseMessage decodes one wire frame. An unrecognized tag is a
// *ProtocolError, never a silent drop.
func ParseMessage(raw []byte) (*Message, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("malformed frame: %v", err)}
	}

	msg := &Message{Type: Type(f.Type)}
	switch msg.Type {
	case TypeAudio:
		msg.Format = f.Format
	case TypeResponse:
		msg.Text = f.Text
		msg.UserText = f.UserText
	case TypeGoodbye:
		msg.Text = f.Text
	case TypeEnd:
		return msg, nil
	default:
		return nil, &ProtocolError{Tag: f.Type, Message: "unrecognized message type"}
	}

	if f.Audio != "" {
		audio, err := base64.StdEncoding.DecodeString(f.Audio)
		if err != nil {
			return nil, &ProtocolError{Tag: f.Type, Message: fmt.Sprintf("invalid audio payload: %v", err)}
		}
		msg.Audio = audio
	}
	return msg, nil
}
