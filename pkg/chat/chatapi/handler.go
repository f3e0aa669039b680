package chatapi

import (
	"strings"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/chat"
	"github.com/Abraxas-365/shohayok/pkg/chat/chatsrv"
	"github.com/Abraxas-365/shohayok/pkg/identity"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory/memorysrv"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	apiTitle       = "Bangla RAG Agent API"
	apiDescription = "An API for interacting with a personalized RAG chatbot."
	apiVersion     = "1.0.0"
	rootMessage    = "Bangla RAG Agent API is running."
)

// ChatHandlers maneja las rutas del gateway con Fiber
type ChatHandlers struct {
	chat      *chatsrv.ChatService
	memory    *memorysrv.MemoryService
	tokens    *identity.TokenService
	heartbeat time.Duration
}

// HandlerOption configures ChatHandlers
type HandlerOption func(*ChatHandlers)

// WithHeartbeat sets the interval of SSE keep-alive comments
func WithHeartbeat(d time.Duration) HandlerOption {
	return func(h *ChatHandlers) {
		h.heartbeat = d
	}
}

// NewChatHandlers crea los handlers. tokens nil deja el gateway abierto.
func NewChatHandlers(chatService *chatsrv.ChatService, memoryService *memorysrv.MemoryService, tokens *identity.TokenService, opts ...HandlerOption) *ChatHandlers {
	h := &ChatHandlers{
		chat:      chatService,
		memory:    memoryService,
		tokens:    tokens,
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registra las rutas del gateway en Fiber
func (h *ChatHandlers) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.Root)
	router.Post("/session", h.OpenSession)
	router.Post("/chat", h.Chat)
	router.Get("/memory/:user_id", h.GetMemory)
	router.Get("/memory/:user_id/events", h.StreamMemory)
}

// Root devuelve el estado y la descripción del servicio
func (h *ChatHandlers) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"message":     rootMessage,
		"title":       apiTitle,
		"description": apiDescription,
		"version":     apiVersion,
	})
}

// OpenSession genera un user_id nuevo y, si la firma está activa, un token
func (h *ChatHandlers) OpenSession(c *fiber.Ctx) error {
	userID := identity.NewUserID()
	body := fiber.Map{
		"user_id": userID,
	}

	if h.tokens != nil {
		token, expiresAt, err := h.tokens.Issue(userID)
		if err != nil {
			return err
		}
		body["token"] = token
		body["expires_at"] = expiresAt
	}

	return c.Status(fiber.StatusCreated).JSON(body)
}

// Chat corre un turno del agente
func (h *ChatHandlers) Chat(c *fiber.Ctx) error {
	var req chat.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return chat.ErrValidation().
			WithMessage("request body must be a JSON object with query, user_id and thread_id").
			WithCause(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if err := h.authorize(c, req.UserID); err != nil {
		return err
	}

	resp, err := h.chat.Chat(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetMemory devuelve {"memory": objeto} o {"memory": null}
func (h *ChatHandlers) GetMemory(c *fiber.Ctx) error {
	userID := userParam(c)
	if err := h.authorize(c, userID); err != nil {
		return err
	}

	rec, err := h.memory.GetMemory(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if rec == nil {
		return c.JSON(fiber.Map{"memory": nil})
	}
	return c.JSON(fiber.Map{"memory": rec.Data})
}

func (h *ChatHandlers) authorize(c *fiber.Ctx, userID kernel.UserID) error {
	if h.tokens == nil {
		return nil
	}
	return h.tokens.Authorize(bearerToken(c), userID)
}

// userParam copia :user_id fuera del buffer del Ctx; the id outlives the
// request as a broker key and inside the SSE writer.
func userParam(c *fiber.Ctx) kernel.UserID {
	return kernel.UserID(utils.CopyString(c.Params("user_id")))
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
