package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/AresAzdan/reminderbotancrouxiety/internal/command"
	"github.com/AresAzdan/reminderbotancrouxiety/internal/store"
)

// fakeAPI answers the few Bot API methods the router uses.
type fakeAPI struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	reply := func(result string) {
		_, _ = w.Write([]byte(`{"ok":true,"result":` + result + `}`))
	}
	switch method {
	case "getMe":
		reply(`{"id":1,"is_bot":true,"first_name":"rem","username":"rem_bot"}`)
	case "getChat":
		if r.FormValue("chat_id") != "42" {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		reply(`{"id":42,"type":"group","title":"family"}`)
	case "sendMessage":
		f.mu.Lock()
		f.sent = append(f.sent, r.FormValue("text"))
		f.mu.Unlock()
		body, _ := json.Marshal(r.FormValue("text"))
		reply(`{"message_id":1,"date":0,"chat":{"id":42,"type":"group"},"text":` + string(body) + `}`)
	default:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":500,"description":"boom"}`))
	}
}

func (f *fakeAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestRouter(t *testing.T) (*Router, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint("token", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	loc := time.FixedZone("WIB", 7*60*60)
	h := command.NewHandler(store.NewMemory(loc), zap.NewNop(), loc,
		command.WithPrefix(Prefix),
		command.WithClock(func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, loc) }))
	return NewRouter(bot, zap.NewNop(), h), api
}

func commandUpdate(text string, chatID int64) tgbotapi.Update {
	name := text
	if i := strings.IndexByte(text, ' '); i >= 0 {
		name = text[:i]
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "group"},
		From:     &tgbotapi.User{ID: 7, FirstName: "ana"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func TestHandleUpdate_Commands(t *testing.T) {
	r, api := newTestRouter(t)
	ctx := context.Background()

	r.HandleUpdate(ctx, commandUpdate("/rem 12:00 makan siang", 42))
	r.HandleUpdate(ctx, commandUpdate("/list@rem_bot", 42))
	r.HandleUpdate(ctx, commandUpdate("/dance", 42))
	r.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 42}}})

	got := api.messages()
	if len(got) != 2 {
		t.Fatalf("want 2 replies, got %q", got)
	}
	if !strings.HasPrefix(got[0], "✅ One-time reminder 1") {
		t.Fatalf("unexpected create reply %q", got[0])
	}
	if !strings.Contains(got[1], "1. (once) makan siang") {
		t.Fatalf("unexpected list reply %q", got[1])
	}
}

func TestGateway(t *testing.T) {
	r, api := newTestRouter(t)
	ctx := context.Background()

	if ok, err := r.ServerExists(ctx, "42"); err != nil || !ok {
		t.Fatalf("known chat: %v, %v", ok, err)
	}
	if ok, err := r.ServerExists(ctx, "43"); err != nil || ok {
		t.Fatalf("unknown chat: %v, %v", ok, err)
	}
	if ok, _ := r.ChannelExists(ctx, "42", "43"); ok {
		t.Fatal("foreign channel accepted")
	}
	if err := r.Send(ctx, "42", "⏰ minum air"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := api.messages(); len(got) != 1 || got[0] != "⏰ minum air" {
		t.Fatalf("unexpected messages %q", got)
	}
}
