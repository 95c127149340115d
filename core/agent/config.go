package agent

import (
	"bytes"
	"encoding/json"
)

// Config is the conversation token issued by the backend. The bot never
// interprets it: the bytes received from get-agent are sent back unchanged
// with every question.
type Config json.RawMessage

// MarshalJSON emits the stored bytes verbatim.
func (c Config) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

// UnmarshalJSON keeps a private copy of the raw token.
func (c *Config) UnmarshalJSON(data []byte) error {
	*c = append((*c)[:0], data...)
	return nil
}

// Empty reports whether the backend returned no token at all.
func (c Config) Empty() bool {
	trimmed := bytes.TrimSpace(c)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Equal compares two tokens byte for byte.
func (c Config) Equal(other Config) bool {
	return bytes.Equal(c, other)
}

// ThreadID extracts thread_id for log correlation only, looking at the top
// level and under "configurable". Unknown shapes yield "".
func (c Config) ThreadID() string {
	var probe struct {
		ThreadID     any `json:"thread_id"`
		Configurable struct {
			ThreadID any `json:"thread_id"`
		} `json:"configurable"`
	}
	if err := json.Unmarshal(c, &probe); err != nil {
		return ""
	}
	for _, v := range []any{probe.Configurable.ThreadID, probe.ThreadID} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
