package server

import (
	"battler-server/internal/engine"
	"encoding/json"
	"net/http"
)

// DebugHandler предоставляет доступ к внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/sessions", h.handleListSessions)
	mux.HandleFunc("/debug/catalog", h.handleDumpCatalog)
	mux.HandleFunc("/debug/scoreboard", h.handleScoreboard)
}

// /debug/sessions - активные сессии
func (h *DebugHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	type SessionSummary struct {
		Count    int      `json:"count"`
		Sessions []string `json:"sessions"`
	}

	writeJSON(w, SessionSummary{
		Count:    h.Service.ActiveSessions(),
		Sessions: h.Service.SessionIDs(),
	})
}

// /debug/catalog - дамп загруженного каталога монстров (включая фазы и паттерны)
func (h *DebugHandler) handleDumpCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.Catalog().Monsters)
}

// /debug/scoreboard - объединённая таблица лидеров без лимита клиента
func (h *DebugHandler) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Scoreboard(r.Context(), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	// Разрешаем запросы с любого источника (нужно для локального debug_client.html)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// Если data == nil (например, пустая таблица), возвращаем пустой массив [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
