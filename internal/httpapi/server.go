package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matheusdonha/cheftesteagente/internal/history"
	"github.com/matheusdonha/cheftesteagente/internal/observability"
	"github.com/matheusdonha/cheftesteagente/internal/telegram"
)

// Exchanger runs one full request/reply cycle and returns the reply text.
type Exchanger interface {
	Exchange(ctx context.Context, channel, userID string, content history.Content) (string, error)
}

// Assembler normalizes an inbound platform event into turn content.
type Assembler interface {
	Assemble(ctx context.Context, ev telegram.Event) (history.Content, bool)
}

// Sender pushes a reply back to the originating chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Server exposes the bot routes (webhook plus direct API) and the web chat
// widget routes over one router.
type Server struct {
	store        history.Store
	orchestrator Exchanger
	assembler    Assembler
	sender       Sender
	window       int
	metrics      *observability.Metrics
	widget       http.Handler
}

func New(store history.Store, orchestrator Exchanger, asm Assembler, sender Sender, window int, metrics *observability.Metrics) *Server {
	if window <= 0 {
		window = history.DefaultWindow
	}
	return &Server{
		store:        store,
		orchestrator: orchestrator,
		assembler:    asm,
		sender:       sender,
		window:       window,
		metrics:      metrics,
		widget:       newWidgetHandler(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/webhook", s.handleWebhook)
	r.Post("/responder", s.handleResponder)
	r.Get("/historico", s.handleHistorico)
	r.Delete("/delete", s.handleDelete)

	r.Get("/", s.handleWidgetPage)
	r.Post("/api/chat", s.handleAPIChat)
	r.Get("/api/history", s.handleAPIHistory)
	r.Post("/api/clear", s.handleAPIClear)
	r.Get("/api/status", s.handleAPIStatus)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleWebhook always answers 200 so the platform does not redeliver;
// processing failures are logged, never surfaced to the caller.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	defer respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Printf("webhook body read failed: %v", err)
		return
	}

	ev, err := telegram.ParseUpdate(body)
	if err != nil {
		log.Printf("webhook decode failed: %v", err)
		return
	}
	if ev.Kind == telegram.EventNone {
		return
	}
	if s.assembler == nil || s.sender == nil {
		log.Printf("webhook event from chat %d ignored: telegram features disabled", ev.ChatID)
		return
	}

	content, ok := s.assembler.Assemble(r.Context(), ev)
	if !ok {
		return
	}

	reply, err := s.orchestrator.Exchange(r.Context(), "telegram", ev.UserID(), content)
	if err != nil {
		log.Printf("webhook exchange failed for chat %d: %v", ev.ChatID, err)
		return
	}

	if err := s.sender.SendMessage(ev.ChatID, reply); err != nil {
		log.Printf("webhook delivery failed for chat %d: %v", ev.ChatID, err)
		if s.metrics != nil {
			s.metrics.DeliveryErrors.WithLabelValues("telegram").Inc()
		}
	}
}

func (s *Server) handleResponder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		Mensagem string `json:"mensagem"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Mensagem) == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"erro": "Campos 'user_id' e 'mensagem' são obrigatórios"})
		return
	}

	resposta, err := s.orchestrator.Exchange(r.Context(), "api", req.UserID, history.TextContent(req.Mensagem))
	if err != nil {
		log.Printf("responder exchange failed for user %s: %v", req.UserID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"erro": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"resposta": resposta})
}

func (s *Server) handleHistorico(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondJSON(w, http.StatusBadRequest, "user_id obrigatório")
		return
	}

	window, err := s.store.Window(r.Context(), userID, s.window)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"erro": err.Error()})
		return
	}
	// An empty window reads as absent history at this endpoint.
	if len(window) == 0 {
		respondJSON(w, http.StatusBadRequest, "Sem histórico")
		return
	}

	entries := make([]map[string]any, 0, len(window))
	for _, turn := range window {
		entries = append(entries, map[string]any{
			"role":    turn.Role,
			"content": unwrapContent(turn.Content),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"historico": entries})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondJSON(w, http.StatusBadRequest, "user_id obrigatório")
		return
	}

	if err := s.store.Erase(r.Context(), userID); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"erro": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"resposta": "Histórico apagado com sucesso"})
}

func (s *Server) handleWidgetPage(w http.ResponseWriter, r *http.Request) {
	s.widget.ServeHTTP(w, r)
}

func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Dados JSON inválidos"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Mensagem não pode estar vazia"})
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = "default"
	}

	response, err := s.orchestrator.Exchange(r.Context(), "web", sessionID, history.TextContent(message))
	if err != nil {
		log.Printf("widget exchange failed for session %s: %v", sessionID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "Erro interno do servidor",
			"status": "error",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"response":  response,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    "success",
	})
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id é obrigatório"})
		return
	}

	window, err := s.store.Window(r.Context(), sessionID, s.window)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "Erro ao carregar histórico", "history": []any{}, "total": 0,
		})
		return
	}

	entries := make([]map[string]any, 0, len(window))
	for _, turn := range window {
		key := "bot"
		if turn.Role == history.RoleUser {
			key = "user"
		}
		entries = append(entries, map[string]any{
			key:         turn.Content.PlainText(),
			"timestamp": turn.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": entries, "total": len(entries)})
}

func (s *Server) handleAPIClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id é obrigatório"})
		return
	}

	if err := s.store.Erase(r.Context(), req.SessionID); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "Erro ao limpar histórico",
			"status": "error",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Histórico limpo com sucesso",
		"status":  "success",
	})
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "online",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// unwrapContent renders a turn's content the way clients expect it: the bare
// string for text turns, the part list for multimodal turns.
func unwrapContent(c history.Content) any {
	if c.Multimodal() {
		return c.Parts
	}
	return c.Text
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
