package server

import (
	"net/http"

	"sketchflow/internal/gateway/handler"
	"sketchflow/internal/gateway/middleware"
)

func NewMux(
	chatHandler *handler.ChatHandler,
	sessionHandler *handler.SessionHandler,
	connectionHandler *handler.ConnectionHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", chatHandler.HandleChat)
	mux.HandleFunc("GET /api/chat/ws", chatHandler.HandleChatWS)
	mux.HandleFunc("POST /api/test-connection", connectionHandler.HandleTestConnection)

	mux.HandleFunc("GET /api/session/{id}/scene", sessionHandler.HandleGetScene)
	mux.HandleFunc("PUT /api/session/{id}/scene", sessionHandler.HandlePutScene)
	mux.HandleFunc("GET /api/session/{id}/messages", sessionHandler.HandleGetMessages)

	return middleware.CORS(mux)
}
