package shell

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/chat"
	"github.com/Abraxas-365/shohayok/pkg/config"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/gofiber/fiber/v2"
)

// Client habla con el gateway por HTTP
type Client struct {
	baseURL       string
	chatTimeout   time.Duration
	memoryTimeout time.Duration
	stream        *http.Client
}

func NewClient(baseURL string, chatTimeout, memoryTimeout time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		chatTimeout:   chatTimeout,
		memoryTimeout: memoryTimeout,
		stream:        &http.Client{},
	}
}

func NewClientFromConfig(cfg *config.ShellConfig) *Client {
	return NewClient(cfg.GatewayURL, cfg.RequestTimeout, cfg.MemoryTimeout)
}

// SessionInfo es la respuesta de POST /session
type SessionInfo struct {
	UserID    kernel.UserID `json:"user_id"`
	Token     string        `json:"token,omitempty"`
	ExpiresAt time.Time     `json:"expires_at,omitempty"`
}

// MemoryView es el estado del panel de memoria. Found is false when the user
// has no memory yet; Err is set when the lookup failed.
type MemoryView struct {
	Snapshot memory.Snapshot
	Found    bool
	Err      error
}

type errorBody struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
	Code   string `json:"code"`
}

// OpenSession pide al gateway un user_id (y un token si la firma está activa)
func (c *Client) OpenSession(ctx context.Context) (*SessionInfo, error) {
	timeout, err := timeoutFor(ctx, c.memoryTimeout)
	if err != nil {
		return nil, err
	}

	code, body, errs := send(ctx, fiber.Post(c.baseURL+"/session").Timeout(timeout))
	if err := check(code, body, errs); err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := json.Unmarshal(body, &info); err != nil || info.UserID.IsEmpty() {
		return nil, ErrBadResponse().WithCause(err).WithDetail("endpoint", "/session")
	}
	return &info, nil
}

// Chat envía un turno y devuelve el texto de la respuesta. A 2xx reply
// without "response" yields FallbackReply.
func (c *Client) Chat(ctx context.Context, token string, req chat.ChatRequest) (string, error) {
	timeout, err := timeoutFor(ctx, c.chatTimeout)
	if err != nil {
		return "", err
	}

	agent := fiber.Post(c.baseURL + "/chat").
		JSON(req).
		Timeout(timeout)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	code, body, errs := send(ctx, agent)
	if err := check(code, body, errs); err != nil {
		return "", err
	}

	var resp struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Response == nil {
		return FallbackReply, nil
	}
	return *resp.Response, nil
}

// Memory lee GET /memory/:user_id
func (c *Client) Memory(ctx context.Context, token string, userID kernel.UserID) MemoryView {
	timeout, err := timeoutFor(ctx, c.memoryTimeout)
	if err != nil {
		return MemoryView{Err: err}
	}

	agent := fiber.Get(c.baseURL + "/memory/" + userID.String()).
		Timeout(timeout)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	code, body, errs := send(ctx, agent)
	if err := check(code, body, errs); err != nil {
		return MemoryView{Err: err}
	}
	return decodeMemory(body)
}

// WatchMemory se suscribe a /memory/:user_id/events y llama a fn por cada
// evento hasta que ctx termine o el servidor cierre el stream
func (c *Client) WatchMemory(ctx context.Context, token string, userID kernel.UserID, fn func(MemoryView)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/memory/"+userID.String()+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrConnectionFailed().WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return check(resp.StatusCode, buf.Bytes(), nil)
	}

	scanner := bufio.NewScanner(resp.Body)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				fn(decodeMemory([]byte(data.String())))
				data.Reset()
			}
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return ErrConnectionFailed().WithCause(err)
	}
	return nil
}

func decodeMemory(body []byte) MemoryView {
	var resp struct {
		Memory json.RawMessage `json:"memory"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return MemoryView{Err: ErrBadResponse().WithCause(err)}
	}
	if len(resp.Memory) == 0 || string(resp.Memory) == "null" {
		return MemoryView{}
	}

	var snapshot memory.Snapshot
	if err := json.Unmarshal(resp.Memory, &snapshot); err != nil {
		return MemoryView{Err: ErrBadResponse().WithCause(err)}
	}
	return MemoryView{Snapshot: snapshot, Found: true}
}

type reply struct {
	code int
	body []byte
	errs []error
}

// send ejecuta el agente y vuelve en cuanto ctx termina. fasthttp no cancela
// la petición en vuelo; the goroutine drains on the agent timeout.
func send(ctx context.Context, agent *fiber.Agent) (int, []byte, []error) {
	done := make(chan reply, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- reply{code: code, body: body, errs: errs}
	}()

	select {
	case r := <-done:
		return r.code, r.body, r.errs
	case <-ctx.Done():
		return 0, nil, []error{ctx.Err()}
	}
}

// check convierte fallos de transporte y respuestas >= 400 en errores
func check(code int, body []byte, errs []error) error {
	if len(errs) > 0 {
		return ErrConnectionFailed().WithCause(errors.Join(errs...))
	}
	if code >= 200 && code < 300 {
		return nil
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Detail == "" {
		eb.Detail = strings.TrimSpace(string(body))
		if eb.Detail == "" {
			eb.Detail = fmt.Sprintf("HTTP %d", code)
		}
	}
	return ErrGateway().
		WithMessage(eb.Detail).
		WithDetail("status", code).
		WithDetail("kind", eb.Kind).
		WithDetail("code", eb.Code)
}

func timeoutFor(ctx context.Context, d time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < d {
			return remaining, nil
		}
	}
	return d, nil
}
