package bot

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/mock"
)

// MockConn is a testify mock of Conn.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(1).([]byte)
	return args.Get(0).(websocket.MessageType), data, args.Error(2)
}

func (m *MockConn) Write(ctx context.Context, messageType websocket.MessageType, data []byte) error {
	args := m.Called(ctx, messageType, data)
	return args.Error(0)
}

func (m *MockConn) Close(code websocket.StatusCode, reason string) error {
	args := m.Called(code, reason)
	return args.Error(0)
}

// MockDialer returns a Dialer that always hands out conn.
func MockDialer(conn Conn) Dialer {
	return func(context.Context, string, *websocket.DialOptions) (Conn, *http.Response, error) {
		return conn, nil, nil
	}
}
