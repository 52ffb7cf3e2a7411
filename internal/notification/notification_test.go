package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/model"
)

type countingNotifier struct {
	mu   sync.Mutex
	sent []model.Alert
}

func (c *countingNotifier) Send(_ context.Context, a model.Alert) error {
	c.mu.Lock()
	c.sent = append(c.sent, a)
	c.mu.Unlock()
	return nil
}

func sampleAlert(p model.Priority) model.Alert {
	return model.Alert{
		Symbol:    "AAPL",
		Type:      model.AlertRSIOverbought,
		Message:   "RSI is overbought at 75.20",
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Priority:  p,
		Data:      map[string]float64{"rsi": 75.2},
	}
}

func TestSinkPriorityFilter(t *testing.T) {
	n := &countingNotifier{}
	s := NewSink("telegram", n, model.PriorityHigh)
	assert.Equal(t, "telegram", s.Name())

	require.NoError(t, s.Deliver(context.Background(), sampleAlert(model.PriorityMedium)))
	require.NoError(t, s.Deliver(context.Background(), sampleAlert(model.PriorityHigh)))
	require.Len(t, n.sent, 1)
	assert.Equal(t, model.PriorityHigh, n.sent[0].Priority)

	all := &countingNotifier{}
	open := NewSink("log", all, "")
	require.NoError(t, open.Deliver(context.Background(), sampleAlert(model.PriorityLow)))
	assert.Len(t, all.sent, 1)
}

func TestWebhookPostsAlertJSON(t *testing.T) {
	var got model.Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhookNotifier(srv.URL).Send(context.Background(), sampleAlert(model.PriorityMedium)))
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, model.AlertRSIOverbought, got.Type)
	assert.InDelta(t, 75.2, got.Data["rsi"], 1e-9)
}

func TestWebhookRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), sampleAlert(model.PriorityHigh))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestTelegramSend(t *testing.T) {
	var path string
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &payload))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42")
	tn.apiBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), sampleAlert(model.PriorityHigh)))

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "MarkdownV2", payload["parse_mode"])
	text, _ := payload["text"].(string)
	assert.True(t, strings.HasPrefix(text, "🚨"))
	assert.Contains(t, text, `75\.20`)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\.d`, escapeMarkdown("a_b*c.d"))
	assert.Equal(t, "plain", escapeMarkdown("plain"))
}

func TestFormatTelegramIncludesData(t *testing.T) {
	a := sampleAlert(model.PriorityLow)
	a.Data = map[string]float64{"rsi": 75.2, "price": 101.5}
	text := formatTelegram(a)
	assert.True(t, strings.HasPrefix(text, "ℹ️"))
	assert.Contains(t, text, "*AAPL: RSI Overbought*")
	assert.Less(t, strings.Index(text, "`price`"), strings.Index(text, "`rsi`"))
	assert.Contains(t, text, "`rsi` 75\\.20")
}

func TestTelegramErrorDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42")
	tn.apiBase = srv.URL
	err := tn.Send(context.Background(), sampleAlert(model.PriorityHigh))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
