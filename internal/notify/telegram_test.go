package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral_daily/internal/domain"
)

type fakeSender struct {
	params *tgbot.SendMessageParams
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, params *tgbot.SendMessageParams) (*models.Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: 1}, nil
}

func TestTelegram_Send(t *testing.T) {
	sender := &fakeSender{}
	tg := &Telegram{bot: sender, logger: testLogger()}

	err := tg.Send(context.Background(), Digest{
		SubscriptionID: "sub-1",
		Method:         domain.DeliveryTelegram,
		Recipient:      "42",
		Videos: []domain.Video{
			{Title: "Cat", URL: "https://youtube.com/watch?v=cat", Platform: domain.PlatformYouTube, ViralScore: 91.34},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, sender.params)
	assert.Equal(t, "42", sender.params.ChatID)
	assert.Contains(t, sender.params.Text, "1. Cat")
	assert.Contains(t, sender.params.Text, "youtube | score 91.3")
	assert.Contains(t, sender.params.Text, "https://youtube.com/watch?v=cat")
}

func TestTelegram_SendError(t *testing.T) {
	tg := &Telegram{bot: &fakeSender{err: errors.New("chat not found")}, logger: testLogger()}

	err := tg.Send(context.Background(), Digest{Recipient: "42"})

	assert.ErrorContains(t, err, "chat not found")
}

func TestTelegram_EmptyRecipient(t *testing.T) {
	sender := &fakeSender{}
	tg := &Telegram{bot: sender, logger: testLogger()}

	err := tg.Send(context.Background(), Digest{})

	assert.Error(t, err)
	assert.Nil(t, sender.params)
}

func TestNewTelegram_RequiresToken(t *testing.T) {
	_, err := NewTelegram("", testLogger())

	assert.Error(t, err)
}

func TestNewTelegram_SendsThroughBotAPI(t *testing.T) {
	var (
		mu     sync.Mutex
		chatID string
		text   string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"viral","username":"viral_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			mu.Lock()
			chatID = r.FormValue("chat_id")
			text = r.FormValue("text")
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	tg, err := NewTelegram("123456:test-token", testLogger(), tgbot.WithServerURL(server.URL))
	require.NoError(t, err)

	err = tg.Send(context.Background(), Digest{
		SubscriptionID: "sub-1",
		Recipient:      "42",
		Videos:         []domain.Video{{Title: "Dance", URL: "https://tiktok.com/1", Platform: domain.PlatformTikTok}},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "42", chatID)
	assert.Contains(t, text, "Dance")
}

func TestFormatDigest(t *testing.T) {
	assert.Equal(t, "Viral Daily: nothing went viral today.", FormatDigest(Digest{}))

	videos := make([]domain.Video, 200)
	for i := range videos {
		videos[i] = domain.Video{
			Title:    strings.Repeat("x", 60),
			URL:      fmt.Sprintf("https://example.com/%d", i),
			Platform: domain.PlatformTwitter,
		}
	}

	text := FormatDigest(Digest{Videos: videos})

	assert.True(t, strings.HasPrefix(text, "Viral Daily: top 200 videos\n"))
	assert.LessOrEqual(t, len(text), maxMessageLen)
	assert.Contains(t, text, "\n1. ")
}
