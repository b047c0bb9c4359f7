package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/notify"
)

func TestMulti_FansOutInOrder(t *testing.T) {
	var got []string
	rec := func(tag string) notify.Sink {
		return notify.SinkFunc(func(_ context.Context, n notify.Notification) {
			got = append(got, tag+":"+n.Text)
		})
	}
	m := notify.Multi{rec("a"), nil, rec("b")}
	m.Notify(context.Background(), notify.New(notify.KindInfo, "hello"))

	assert.Equal(t, []string{"a:hello", "b:hello"}, got)
}

func dialHub(t *testing.T, ctx context.Context) (*notify.Hub, *websocket.Conn) {
	t.Helper()
	hub := notify.NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

// awaitNotification keeps calling emit until the client receives a frame.
// Registration with the hub is asynchronous, so early emits may be lost.
func awaitNotification(t *testing.T, conn *websocket.Conn, emit func()) notify.Notification {
	t.Helper()
	got := make(chan notify.Notification, 1)
	go func() {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			close(got)
			return
		}
		var n notify.Notification
		if json.Unmarshal(raw, &n) == nil {
			got <- n
		}
		close(got)
	}()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case n, ok := <-got:
			require.True(t, ok, "no notification received")
			return n
		case <-tick.C:
			emit()
		}
	}
}

func TestHub_DeliversToWebsocketClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub, conn := dialHub(t, ctx)

	n := awaitNotification(t, conn, func() {
		hub.Notify(ctx, notify.New(notify.KindSuccess, "Welcome back"))
	})
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "Welcome back", n.Text)
}

func TestHub_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := notify.NewHub(nil)
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	for i := 0; i < 100; i++ {
		// Past the broadcast buffer; must not block once the hub is gone.
		hub.Notify(context.Background(), notify.New(notify.KindInfo, "late"))
	}
}

func TestRedisSink_ReachesSubscribedHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub, conn := dialHub(t, ctx)
	go hub.SubscribeToRedis(ctx, rdb, "test-channel")

	sink := notify.RedisSink{Client: rdb, Channel: "test-channel"}
	n := awaitNotification(t, conn, func() {
		sink.Notify(ctx, notify.New(notify.KindError, "Invalid credentials"))
	})
	assert.Equal(t, notify.KindError, n.Kind)
	assert.Equal(t, "Invalid credentials", n.Text)
}
