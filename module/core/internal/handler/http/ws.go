package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ridepool/livetrack/module/core/domain"
)

const wsWriteTimeout = 5 * time.Second

// StreamLocation upgrades to a WebSocket and relays the trip's live
// feed: the last known sample on connect, then every change event
// until the client disconnects.
func (h *TripHandler) StreamLocation(c *gin.Context) {
	tripID := c.Param("trip_id")

	feed, err := h.feeds.Subscribe(c.Request.Context(), tripID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to open live feed"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		feed.Unsubscribe()
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	defer feed.Unsubscribe()

	ctx := c.Request.Context()

	if cur, _ := feed.Current(); cur != nil {
		if err := writeLocation(ctx, conn, cur); err != nil {
			return
		}
	}

	for {
		select {
		case loc, ok := <-feed.Updates():
			if !ok {
				return
			}
			if err := writeLocation(ctx, conn, &loc); err != nil {
				log.Debug().Err(err).Str("trip_id", tripID).Msg("ws write failed, closing stream")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeLocation(ctx context.Context, conn *websocket.Conn, loc *domain.TripLocation) error {
	b, err := json.Marshal(toLocationResponse(loc))
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, b)
}
