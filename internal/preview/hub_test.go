package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/domain"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	table := domain.DefaultPriceTable()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := strings.TrimPrefix(r.URL.Path, "/ws/")
		ServeWs(hub, session, w, r, InitialMessages(table, session, domain.NewSelection(table))...)
	}))
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + session
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHub_RoutesBySession(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, srv, cancel := startHub(t)
	defer srv.Close()

	a := dial(t, srv, "alpha")
	defer a.Close()
	b := dial(t, srv, "beta")
	defer b.Close()

	// приветствие: текущий цвет и колёса
	for _, conn := range []*websocket.Conn{a, b} {
		assert.Equal(t, TypeColorChanged, readMessage(t, conn).Type)
		assert.Equal(t, TypeWheelsChanged, readMessage(t, conn).Type)
	}

	msg, ok := MessageForChange(domain.DefaultPriceTable(), "alpha", configurator.Change{
		Kind: configurator.ChangeOption, Category: "wheels", OptionID: "premium",
	})
	require.True(t, ok)
	hub.Publish("alpha", msg)

	got := readMessage(t, a)
	assert.Equal(t, TypeWheelsChanged, got.Type)
	assert.Equal(t, "alpha", got.Sender)
	payload := got.Payload.(map[string]interface{})
	assert.Equal(t, "premium", payload["optionId"])
	assert.Equal(t, "#FFD700", payload["swatch"])

	// beta ничего не получает
	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	require.Error(t, err)

	cancel()
	<-hub.Done()

	// после остановки хаба сервер закрывает соединение
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = a.ReadMessage()
	assert.Error(t, err)

	hub.Publish("alpha", msg)
}

func TestHub_CloseSessionDropsOnlyItsClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, srv, cancel := startHub(t)
	defer srv.Close()

	a := dial(t, srv, "alpha")
	defer a.Close()
	b := dial(t, srv, "beta")
	defer b.Close()
	for _, conn := range []*websocket.Conn{a, b} {
		readMessage(t, conn)
		readMessage(t, conn)
	}

	hub.CloseSession("alpha")

	// сервер шлёт close frame клиентам alpha
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)

	// beta по-прежнему получает сообщения
	msg, ok := MessageForChange(domain.DefaultPriceTable(), "beta", configurator.Change{
		Kind: configurator.ChangeOption, Category: "color", OptionID: "pearl",
	})
	require.True(t, ok)
	hub.Publish("beta", msg)
	assert.Equal(t, TypeColorChanged, readMessage(t, b).Type)

	cancel()
	<-hub.Done()

	// после остановки не блокируется
	hub.CloseSession("beta")
}

func TestMessageForChange(t *testing.T) {
	table := domain.DefaultPriceTable()

	m, ok := MessageForChange(table, "s1", configurator.Change{Kind: configurator.ChangeOption, Category: "color", OptionID: "matte"})
	require.True(t, ok)
	assert.Equal(t, TypeColorChanged, m.Type)
	assert.Equal(t, Appearance{OptionID: "matte", Swatch: "#3A3A3A"}, m.Payload)

	m, ok = MessageForChange(table, "s1", configurator.Change{Kind: configurator.ChangeOption, Category: "wheels", OptionID: "alloy"})
	require.True(t, ok)
	assert.Equal(t, Appearance{OptionID: "alloy", Swatch: "#C0C0C0"}, m.Payload)

	_, ok = MessageForChange(table, "s1", configurator.Change{Kind: configurator.ChangeOption, Category: "battery", OptionID: "10kw"})
	assert.False(t, ok)
	_, ok = MessageForChange(table, "s1", configurator.Change{Kind: configurator.ChangeAccessory, AccessoryID: "sunroof"})
	assert.False(t, ok)
}

func TestMessageForChange_FallbackSwatch(t *testing.T) {
	table, err := domain.NewPriceTable(100, []domain.Category{
		{ID: "color", Options: []domain.Option{{ID: "plain"}, {ID: "red", Price: 10}}},
		{ID: "wheels", Options: []domain.Option{{ID: "steel"}}},
	}, nil)
	require.NoError(t, err)

	m, ok := MessageForChange(table, "s", configurator.Change{Kind: configurator.ChangeOption, Category: "color", OptionID: "red"})
	require.True(t, ok)
	assert.Equal(t, DefaultBodySwatch, m.Payload.(Appearance).Swatch)

	msgs := InitialMessages(table, "s", domain.NewSelection(table))
	require.Len(t, msgs, 2)
	assert.Equal(t, DefaultWheelSwatch, msgs[1].Payload.(Appearance).Swatch)
}
