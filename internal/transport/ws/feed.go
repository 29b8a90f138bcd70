// Package ws streams server-pushed gregor items over a WebSocket into the
// dispatcher.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/BergQuester/client/internal/gregor"
	"github.com/BergQuester/client/internal/orchestrator"
)

const (
	dialTimeout      = 10 * time.Second
	reconnectBackoff = 5 * time.Second
	maxMessageSize   = 1 << 20
)

// wireItem is one pushed frame. Body arrives as raw JSON and is forwarded
// opaque; decoding is the merge logic's job, isolated per category.
type wireItem struct {
	Category string          `json:"category"`
	Body     json.RawMessage `json:"body"`
	MsgID    string          `json:"msg_id,omitempty"`
}

// Feed owns one WebSocket subscription to the push channel and re-dials on
// failure until its context is cancelled.
type Feed struct {
	url      string
	token    string
	dispatch func(orchestrator.Event)
	log      hclog.Logger
}

func NewFeed(url, sessionToken string, dispatch func(orchestrator.Event), log hclog.Logger) *Feed {
	return &Feed{
		url:      url,
		token:    sessionToken,
		dispatch: dispatch,
		log:      log.Named("gregor-feed"),
	}
}

// Run connects and pumps items until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.connectAndPump(ctx); err != nil {
			f.log.Warn("push feed disconnected", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (f *Feed) connectAndPump(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, f.url, &websocket.DialOptions{
		HTTPHeader: http.Header{"X-Session-Token": []string{f.token}},
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(maxMessageSize)
	f.log.Info("push feed connected", "url", f.url)

	for {
		var item wireItem
		if err := wsjson.Read(ctx, conn, &item); err != nil {
			if websocket.CloseStatus(err) != -1 {
				f.log.Info("push feed closed by server")
				return nil
			}
			return err
		}
		f.dispatch(orchestrator.Event{
			Kind: orchestrator.KindPushState,
			Payload: orchestrator.PushStatePayload{
				Items: []gregor.Item{{
					Category: item.Category,
					Body:     []byte(item.Body),
					MsgID:    item.MsgID,
				}},
			},
		})
	}
}
