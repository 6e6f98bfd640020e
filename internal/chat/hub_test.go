package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// wsPair поднимает тестовый сервер и возвращает серверную и клиентскую
// стороны одного websocket-подключения
func wsPair(t *testing.T) (*Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	serverSide := make(chan *Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverSide <- newConn(ws)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-serverSide:
		t.Cleanup(conn.close)
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("server side connection never arrived")
		return nil, nil
	}
}

func readText(t *testing.T, client *websocket.Conn) string {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)
	return string(payload)
}

func TestHubJoinLeave(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	conn, _ := wsPair(t)

	assert.Zero(t, hub.GroupSize("chat_abc"))

	hub.Join("chat_abc", conn)
	assert.Equal(t, 1, hub.GroupSize("chat_abc"))

	// повторный Join не дублирует подключение
	hub.Join("chat_abc", conn)
	assert.Equal(t, 1, hub.GroupSize("chat_abc"))

	hub.Leave("chat_abc", conn)
	assert.Zero(t, hub.GroupSize("chat_abc"))

	// Leave из чужой группы безопасен
	hub.Leave("chat_missing", conn)
}

func TestHubDispatchDeliversToGroupOnly(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	member, memberClient := wsPair(t)
	outsider, outsiderClient := wsPair(t)

	hub.Join("chat_abc", member)
	hub.Join("chat_other", outsider)

	hub.dispatch("chat_abc", []byte(`{"type":"send.message"}`))

	assert.Equal(t, `{"type":"send.message"}`, readText(t, memberClient))

	outsiderClient.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := outsiderClient.ReadMessage()
	assert.Error(t, err, "outsider must not receive the event")
}

func TestHubDispatchFanOut(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	first, firstClient := wsPair(t)
	second, secondClient := wsPair(t)

	hub.Join("chat_list_updates_1", first)
	hub.Join("chat_list_updates_1", second)

	hub.dispatch("chat_list_updates_1", []byte(`{"type":"chat_list_update"}`))

	assert.Equal(t, `{"type":"chat_list_update"}`, readText(t, firstClient))
	assert.Equal(t, `{"type":"chat_list_update"}`, readText(t, secondClient))
}

func TestHubDispatchToEmptyGroup(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	hub.dispatch("chat_nobody", []byte(`{}`))
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		name string
		cur  time.Duration
		want time.Duration
	}{
		{"doubles", time.Second, 2 * time.Second},
		{"keeps doubling", 8 * time.Second, 16 * time.Second},
		{"caps at thirty seconds", 16 * time.Second, 30 * time.Second},
		{"stays at cap", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextBackoff(tt.cur))
		})
	}
}
