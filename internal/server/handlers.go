package server

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/quiz"
)

// Error codes returned in the "error" field.
const (
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeBadRequest       = "bad_request"
	codeNoSelection      = "no_selection"
	codeQuizComplete     = "quiz_complete"
	codeSessionAborted   = "session_aborted"
	codeNotComplete      = "not_complete"
	codeInferenceFailed  = "inference_failed"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type questionResponse struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type sessionResponse struct {
	ID       string            `json:"id"`
	State    string            `json:"state"`
	Question *questionResponse `json:"question,omitempty"`
	Result   *inference.Result `json:"result,omitempty"`
}

type answerRequest struct {
	// Choice is the displayed option index. Null or absent means no
	// selection was made.
	Choice *int `json:"choice"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"labels":   s.predictor.Labels(),
		"pair_id":  s.predictor.Bundle().Meta.PairID,
		"sessions": s.sessions.len(),
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.create(s.newEngine())

	sess.mu.Lock()
	defer sess.mu.Unlock()
	resp := s.snapshot(sess)
	s.logger.Debug("session created", zap.String("session_id", sess.id))
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, codeNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	view, err := sess.engine.CurrentQuestion()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestion(view))
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	choice := quiz.NoSelection
	if req.Choice != nil {
		choice = *req.Choice
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	state, err := sess.engine.Submit(choice)
	switch {
	case err == nil:
	case state.Phase == quiz.PhaseFailed && !errors.Is(err, quiz.ErrSessionAborted):
		s.logger.Error("inference failed", zap.String("session_id", sess.id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInferenceFailed, err.Error())
		return
	default:
		writeEngineError(w, err)
		return
	}

	if res, done := sess.engine.Result(); done && !sess.recorded {
		sess.recorded = true
		// Best effort: the recorder logs its own failures.
		_ = s.recorder.Record(r.Context(), sess.id, res)
	}
	writeJSON(w, http.StatusOK, s.snapshot(sess))
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.engine.Reset()
	sess.recorded = false
	writeJSON(w, http.StatusOK, s.snapshot(sess))
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	res, done := sess.engine.Result()
	if !done {
		if sess.engine.State().Phase == quiz.PhaseFailed {
			writeEngineError(w, quiz.ErrSessionAborted)
			return
		}
		writeError(w, http.StatusConflict, codeNotComplete, "quiz is not complete")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// lookup resolves the {id} route variable and touches the session.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "session not found")
		return nil, false
	}
	sess.mu.Lock()
	sess.lastSeen = s.sessions.now()
	sess.mu.Unlock()
	return sess, true
}

// snapshot describes a session. The caller holds sess.mu.
func (s *Server) snapshot(sess *session) sessionResponse {
	resp := sessionResponse{ID: sess.id, State: sess.engine.State().String()}
	if view, err := sess.engine.CurrentQuestion(); err == nil {
		q := toQuestion(view)
		resp.Question = &q
	}
	if res, ok := sess.engine.Result(); ok {
		resp.Result = res
	}
	return resp
}

func toQuestion(v quiz.QuestionView) questionResponse {
	return questionResponse{
		Index:   v.Index,
		Total:   v.Total,
		Prompt:  v.Prompt,
		Options: v.Options,
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	var noSel *quiz.NoSelectionError
	switch {
	case errors.As(err, &noSel):
		writeError(w, http.StatusUnprocessableEntity, codeNoSelection, "Please select an option.")
	case errors.Is(err, quiz.ErrQuizComplete):
		writeError(w, http.StatusConflict, codeQuizComplete, err.Error())
	case errors.Is(err, quiz.ErrSessionAborted):
		writeError(w, http.StatusConflict, codeSessionAborted, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInferenceFailed, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
