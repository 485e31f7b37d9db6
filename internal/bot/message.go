package bot

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Frame kinds of the strims chat protocol. A frame is "KIND {json}".
const (
	KindMsg         = "MSG"
	KindPrivMsg     = "PRIVMSG"
	KindPrivMsgSent = "PRIVMSGSENT"
	KindNames       = "NAMES"
	KindJoin        = "JOIN"
	KindQuit        = "QUIT"
	KindViewerState = "VIEWERSTATE"
	KindErr         = "ERR"
)

type Msg struct {
	Kind     string   `json:"-"`
	Data     string   `json:"data"`
	User     string   `json:"nick,omitempty"`
	Time     int64    `json:"timestamp,omitempty"`
	Features []string `json:"features,omitempty"`
}

func (m Msg) IsMod() bool {
	return slices.Contains(m.Features, "moderator")
}

// parseMsg decodes a raw frame. ERR frames become errors.
func parseMsg(raw string) (*Msg, error) {
	kind, body, ok := strings.Cut(raw, " ")
	if !ok {
		return nil, fmt.Errorf("malformed frame %q", raw)
	}

	if kind == KindErr {
		value, err := strconv.Unquote(body)
		if err != nil {
			return nil, fmt.Errorf("failed to unquote string: %w", err)
		}
		return nil, fmt.Errorf("server returned error: %s", value)
	}

	out := &Msg{Kind: kind}
	switch kind {
	case KindMsg, KindPrivMsg:
		if err := json.Unmarshal([]byte(body), out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %v %w", body, err)
		}
	default:
		if !json.Valid([]byte(body)) {
			return nil, fmt.Errorf("invalid json content in %s frame", kind)
		}
	}
	return out, nil
}

// encodeMsg builds an outgoing frame. Double quotes are swapped for single
// quotes since the chat renders escaped quotes literally.
func encodeMsg(kind, data, user string) (string, error) {
	payload, err := json.Marshal(&Msg{
		Data: strings.ReplaceAll(data, "\"", "'"),
		User: user,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal output message: %w", err)
	}
	return kind + " " + string(payload), nil
}
