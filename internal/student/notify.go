package student

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mahasiswa/pkg/event"
	"github.com/nao1215/mahasiswa/pkg/httpclient"
	"github.com/nao1215/mahasiswa/pkg/logger"
	"github.com/nao1215/mahasiswa/pkg/middleware"
)

// eventsPath はWebhook先でイベントを受け付けるパス。
const eventsPath = "/events"

// Notifier はレコードの変更イベントを外部へ通知する。
type Notifier interface {
	Notify(ctx context.Context, e *event.Event) error
}

// WebhookNotifier はイベントをHTTP POSTで送信するNotifier。
type WebhookNotifier struct {
	client *httpclient.Client
}

// NewWebhookNotifier は baseURL+"/events" に送信するNotifierを生成する。
func NewWebhookNotifier(client *httpclient.Client) *WebhookNotifier {
	return &WebhookNotifier{client: client}
}

// Notify はイベントを送信する。
func (n *WebhookNotifier) Notify(ctx context.Context, e *event.Event) error {
	if err := n.client.PostJSON(ctx, eventsPath, e, nil); err != nil {
		return fmt.Errorf("イベント %s の送信に失敗: %w", e.EventType, err)
	}
	return nil
}

// emitEvent は変更イベントをバックグラウンドで通知する。
// レスポンスは送信の完了を待たない。送信に失敗した場合はログに記録する。
func (s *Server) emitEvent(c *gin.Context, id int64, eventType event.Type, data any) {
	if s.notifier == nil {
		return
	}

	e, err := event.New(event.MahasiswaAggregateID(id), event.AggregateTypeMahasiswa, eventType, data)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("イベントの生成に失敗")
		return
	}

	// gin.Contextはハンドラ終了後に再利用されるため、必要な値を先に取り出す
	requestID := middleware.GetRequestID(c)
	ctx := httpclient.WithRequestID(context.WithoutCancel(c.Request.Context()), requestID)

	s.events.Go(func() {
		if err := s.notifier.Notify(ctx, e); err != nil {
			logger.Warn().Err(err).
				Str("event_id", e.ID).
				Str("aggregate_id", e.AggregateID).
				Str("request_id", requestID).
				Msg("変更イベントの通知に失敗")
		}
	})
}

// waitEvents は送信中の変更イベントがすべて終わるまで待つ。
func (s *Server) waitEvents() {
	s.events.Wait()
}

func mahasiswaData(m Mahasiswa) event.MahasiswaData {
	return event.MahasiswaData{
		ID:            m.ID,
		NIM:           m.NIM,
		NamaMahasiswa: m.NamaMahasiswa,
		Fakultas:      m.Fakultas,
		Jurusan:       m.Jurusan,
	}
}
