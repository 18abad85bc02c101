package handler

import (
	"fmt"

	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/pkg/serverutils"
	internalWS "docqa-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ProgressHandler streams run progress to websocket clients.
type ProgressHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewProgressHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// RegisterRoutes registers the websocket route.
func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/v1/ws", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	userID, err := h.resolveUser(c)
	if err != nil {
		h.logger.Warn("ProgressHandler", "Rejected WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, err.Error()))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ProgressHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("ProgressHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

// resolveUser takes the user from a token when auth is on, otherwise from
// the user_id query parameter.
func (h *ProgressHandler) resolveUser(c *fiber.Ctx) (string, error) {
	if h.jwtSecret == "" {
		if uid := c.Query("user_id"); uid != "" {
			return uid, nil
		}
		return "", fmt.Errorf("missing user_id")
	}

	// Query param for browsers, header for everything else.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return "", fmt.Errorf("missing token (query 'token' or header 'Authorization')")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	uid, ok := claims["user_id"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("token missing user_id")
	}
	return uid, nil
}
