package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/Maynkbisht/AI-Router/internal/router"
	"github.com/Maynkbisht/AI-Router/pkg/security"
	"github.com/Maynkbisht/AI-Router/pkg/session"
)

const maxBodyBytes = 64 << 10

// Client-facing messages
const (
	msgEmptyPrompt    = "Prompt cannot be empty"
	msgNoPrompt       = "No prompt provided"
	msgNoPending      = "No pending prompts"
	msgNothingToUndo  = "No messages to undo"
	msgNothingToRedo  = "No messages to redo"
	msgInvalidRequest = "Invalid request body"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type errorBody struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Stats   *session.Stats `json:"session_stats,omitempty"`
}

type statsBody struct {
	Success bool          `json:"success"`
	Stats   session.Stats `json:"session_stats"`
}

type messageBody struct {
	Success bool             `json:"success"`
	Undone  *session.Message `json:"undone_message,omitempty"`
	Redone  *session.Message `json:"redone_message,omitempty"`
	Stats   session.Stats    `json:"session_stats"`
}

type historyBody struct {
	Success  bool               `json:"success"`
	Messages []*session.Message `json:"messages"`
	Stats    session.Stats      `json:"session_stats"`
}

type pendingBody struct {
	Success bool          `json:"success"`
	Pending []string      `json:"pending_prompts"`
	Stats   session.Stats `json:"session_stats"`
}

type rankingEntry struct {
	ProviderID   string  `json:"provider_id"`
	ProviderName string  `json:"provider_name"`
	Score        float64 `json:"score"`
}

type classifyBody struct {
	Success     bool                `json:"success"`
	Category    classifier.Category `json:"category"`
	Confidence  float64             `json:"confidence"`
	Keywords    []string            `json:"keyword_matches"`
	Explanation string              `json:"explanation"`
	Ranking     []rankingEntry      `json:"ranking"`
}

type providersBody struct {
	Success   bool                  `json:"success"`
	Providers []provider.Descriptor `json:"providers"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrompt(w, r)
	if !ok {
		return
	}
	sess := session.MustFromContext(r.Context())

	resp, err := s.router.Chat(r.Context(), sess, req.Prompt)
	if err != nil {
		writePromptError(w, err)
		return
	}
	writeJSON(w, routeStatus(resp), resp)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrompt(w, r)
	if !ok {
		return
	}
	sess := session.MustFromContext(r.Context())

	if _, err := security.ValidatePrompt(req.Prompt); err != nil {
		writePromptError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	_, err := s.router.Stream(r.Context(), sess, req.Prompt, func(chunk string) error {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		log.Printf("[API] stream for session %s ended early: %v", sess.ID(), err)
	}
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrompt(w, r)
	if !ok {
		return
	}
	prompt, err := security.ValidatePrompt(req.Prompt)
	if err != nil {
		writePromptError(w, err)
		return
	}

	result, ranked := s.router.Rank(prompt)
	ranking := make([]rankingEntry, 0, len(ranked))
	for _, sc := range ranked {
		d := sc.Provider.Descriptor()
		ranking = append(ranking, rankingEntry{ProviderID: d.ID, ProviderName: d.Name, Score: sc.Score})
	}

	writeJSON(w, http.StatusOK, classifyBody{
		Success:     true,
		Category:    result.Category,
		Confidence:  result.Confidence,
		Keywords:    result.Keywords,
		Explanation: classifier.Explain(prompt),
		Ranking:     ranking,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	sess.Clear()
	writeJSON(w, http.StatusOK, statsBody{Success: true, Stats: sess.Stats()})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	msg, err := sess.Undo()
	if err != nil {
		stats := sess.Stats()
		writeJSON(w, http.StatusOK, errorBody{Error: msgNothingToUndo, Stats: &stats})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Success: true, Undone: msg, Stats: sess.Stats()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	msg, err := sess.Redo()
	if err != nil {
		stats := sess.Stats()
		writeJSON(w, http.StatusOK, errorBody{Error: msgNothingToRedo, Stats: &stats})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Success: true, Redone: msg, Stats: sess.Stats()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, historyBody{Success: true, Messages: sess.Messages(), Stats: sess.Stats()})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, pendingBody{Success: true, Pending: sess.Pending(), Stats: sess.Stats()})
}

func (s *Server) handleEnqueuePending(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrompt(w, r)
	if !ok {
		return
	}
	sess := session.MustFromContext(r.Context())

	if !sess.EnqueuePending(req.Prompt) {
		stats := sess.Stats()
		writeJSON(w, http.StatusOK, errorBody{Error: msgNoPrompt, Stats: &stats})
		return
	}
	writeJSON(w, http.StatusOK, statsBody{Success: true, Stats: sess.Stats()})
}

func (s *Server) handleProcessPending(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	resp, err := s.router.ProcessPending(r.Context(), sess)
	switch {
	case errors.Is(err, session.ErrQueueEmpty):
		stats := sess.Stats()
		writeJSON(w, http.StatusOK, errorBody{Error: msgNoPending, Stats: &stats})
		return
	case err != nil:
		writePromptError(w, err)
		return
	}
	writeJSON(w, routeStatus(resp), resp)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, providersBody{Success: true, Providers: s.router.Providers()})
}

// decodePrompt reads a {"prompt": "..."} body, writing a 400 on failure.
func decodePrompt(w http.ResponseWriter, r *http.Request) (promptRequest, bool) {
	var req promptRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidRequest})
		return req, false
	}
	return req, true
}

func writePromptError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if errors.Is(err, security.ErrEmptyPrompt) {
		msg = msgEmptyPrompt
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func routeStatus(resp *router.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}
