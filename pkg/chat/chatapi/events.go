package chatapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// StreamMemory envía la memoria del usuario como Server-Sent Events. The
// first event carries the current snapshot (or null); every later write
// produces one more event.
func (h *ChatHandlers) StreamMemory(c *fiber.Ctx) error {
	userID := userParam(c)
	if err := h.authorize(c, userID); err != nil {
		return err
	}

	// suscribirse antes de leer para no perder escrituras intermedias
	updates, cancel := h.memory.Subscribe(userID)

	current, err := h.memory.GetMemory(c.UserContext(), userID)
	if err != nil {
		cancel()
		return err
	}
	initial, err := encodeMemoryEvent(current)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	heartbeat := h.heartbeat
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if err := writeEvent(w, initial); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case rec, ok := <-updates:
				if !ok {
					return
				}
				payload, err := encodeMemoryEvent(&rec)
				if err != nil {
					logx.WithError(err).WithField("user_id", userID.String()).Error("failed to encode memory event")
					continue
				}
				if err := writeEvent(w, payload); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func encodeMemoryEvent(rec *memory.Record) ([]byte, error) {
	body := map[string]any{"memory": nil}
	if rec != nil {
		body["memory"] = rec.Data
	}
	return json.Marshal(body)
}

func writeEvent(w *bufio.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "event: memory\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
