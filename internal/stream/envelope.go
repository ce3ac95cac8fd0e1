package stream

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// Envelope is the wrapper the API puts around every response payload.
type Envelope[T any] struct {
	Result   *T        `json:"result"`
	Success  bool      `json:"success"`
	Errors   []Message `json:"errors"`
	Messages []Message `json:"messages"`
}

// Unwrap returns the payload, or a ProviderError when the envelope reports
// failure or carries no result.
func (e *Envelope[T]) Unwrap() (T, error) {
	var zero T
	if !e.Success {
		return zero, &ProviderError{Errors: e.Errors, Reason: "success=false"}
	}
	if e.Result == nil {
		return zero, &ProviderError{Errors: e.Errors, Reason: "malformed success response"}
	}
	return *e.Result, nil
}

// Message is one entry of an envelope's errors or messages list. The API
// documents them as objects with code and message but plain strings also
// turn up, so both shapes decode.
type Message struct {
	Code int
	Text string
}

func (m *Message) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	switch {
	case res.Type == gjson.String:
		m.Text = res.String()
	case res.IsObject():
		m.Code = int(res.Get("code").Int())
		m.Text = res.Get("message").String()
	case res.Type == gjson.Null:
	default:
		m.Text = res.Raw
	}
	return nil
}

func (m Message) String() string {
	if m.Code == 0 {
		return m.Text
	}
	return strconv.Itoa(m.Code) + ": " + m.Text
}
