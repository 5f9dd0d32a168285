package handler

import (
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/pkg/serverutils"
	"blog-editor-be/internal/service"
	internalWS "blog-editor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// EditorWsHandler upgrades connections that follow an editor session: the
// toolbar state and save notices are pushed over them.
type EditorWsHandler struct {
	editorService service.IEditorService
	hub           *internalWS.Hub
	logger        logger.ILogger
}

func NewEditorWsHandler(editorService service.IEditorService, hub *internalWS.Hub, log logger.ILogger) *EditorWsHandler {
	return &EditorWsHandler{
		editorService: editorService,
		hub:           hub,
		logger:        log,
	}
}

func (h *EditorWsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/editor/v1/sessions/:id/ws", h.ServeWs)
}

// tokenFrom reads the token from the query first, since browsers cannot set
// headers on a websocket handshake.
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

func (h *EditorWsHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := tokenFrom(c)
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}

	userIDStr, err := serverutils.ParseUserID(tokenStr)
	if err != nil {
		h.logger.Warn("WS", "Invalid token in handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID format in token")
	}

	sessionID := c.Params("id")
	if err := h.editorService.Authorize(userID, sessionID); err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("WS", "Editor socket opened", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID, userID.String())
		h.logger.Info("WS", "Editor socket closed", map[string]interface{}{"session_id": sessionID})
	})(c)
}
