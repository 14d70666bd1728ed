// Package protocol defines the relay wire protocol: the JSON text frame
// accepted from clients, the translated-text ack returned to the sender,
// and the plain-text notice strings.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/samvaad-live/samvaad/pkg/core"
)

// Notices delivered to the initiating connection as plain text frames.
const (
	NoticeUnsupportedType = "Unsupported message type."
	NoticeInvalidJSON     = "Invalid JSON."
	NoticeFallback        = "Fallback to Hindi due to unsupported language."
)

// TextFrame is the shape of inbound typed-utterance frames and of the
// translated-text ack sent back to the sender.
type TextFrame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type inboundFrame struct {
	Type string  `json:"type"`
	Data *string `json:"data"`
}

// ParseInbound extracts the utterance from an inbound text frame.
// Frames that are not valid JSON yield a protocol error carrying
// NoticeInvalidJSON; valid JSON of any other shape (wrong type tag,
// missing data, non-object) yields NoticeUnsupportedType.
func ParseInbound(raw []byte) (string, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", core.NewProtocolError(NoticeUnsupportedType)
		}
		return "", core.NewProtocolError(NoticeInvalidJSON)
	}
	if frame.Type != "text" || frame.Data == nil {
		return "", core.NewProtocolError(NoticeUnsupportedType)
	}
	return *frame.Data, nil
}

// EncodeText renders the translated-text ack frame.
func EncodeText(text string) ([]byte, error) {
	return json.Marshal(TextFrame{Type: "text", Data: text})
}
