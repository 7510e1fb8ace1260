package todos

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	msgInvalidID      = "Invalid todo ID"
	msgInvalidBody    = "Invalid request body"
	msgNotFound       = "Todo not found"
	msgDeleted        = "Todo deleted successfully"
	msgInternalServer = "Internal Server Error"
)

// title is kept raw: any JSON value is accepted and stored as text.
type createTodoRequest struct {
	Title json.RawMessage `json:"title"`
}

// titleText renders a raw JSON title as stored text. Strings are kept
// as-is, null or absent becomes nil, anything else keeps its compact JSON form.
func titleText(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	s := buf.String()
	return &s, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type errResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes mounts the todo routes on r. Callers usually mount r under /api.
func RegisterRoutes(r chi.Router, repo Repository, logger *slog.Logger) {
	r.Get("/todos", listTodos(repo, logger))
	r.Post("/todos", createTodo(repo, logger))
	r.Get("/todos/{id}", getTodo(repo, logger))
	r.Put("/todos/{id}", updateTodo(repo, logger))
	r.Delete("/todos/{id}", deleteTodo(repo, logger))
}

func listTodos(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		log.Debug("todo_list_received")

		todos, err := repo.List(r.Context())
		if err != nil {
			internalError(w, log, "todo_list_failed", err)
			return
		}

		log.Info("todo_list_done", slog.Int("count", len(todos)))
		writeJSON(w, http.StatusOK, todos)
	}
}

func createTodo(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		log.Debug("todo_create_received")

		var req createTodoRequest
		if err := decodeBody(r, &req); err != nil {
			log.Warn("todo_create_bad_body", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
			return
		}

		title, err := titleText(req.Title)
		if err != nil {
			log.Warn("todo_create_bad_body", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
			return
		}

		t, err := repo.Create(r.Context(), title)
		if err != nil {
			internalError(w, log, "todo_create_failed", err)
			return
		}

		log.Info("todo_create_done", slog.String("id", t.ID))
		writeJSON(w, http.StatusOK, t)
	}
}

func getTodo(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("id", id))
		log.Debug("todo_get_received")

		if !ValidID(id) {
			log.Warn("todo_get_invalid_id")
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidID})
			return
		}

		t, err := repo.Get(r.Context(), id)
		switch {
		case errors.Is(err, ErrNotFound):
			// missing todos read as a null body, not a 404
			log.Info("todo_get_done", slog.Bool("found", false))
			writeJSON(w, http.StatusOK, nil)
		case err != nil:
			internalError(w, log, "todo_get_failed", err)
		default:
			log.Info("todo_get_done", slog.Bool("found", true))
			writeJSON(w, http.StatusOK, t)
		}
	}
}

func updateTodo(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("id", id))
		log.Debug("todo_update_received")

		if !ValidID(id) {
			log.Warn("todo_update_invalid_id")
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidID})
			return
		}

		var patch Patch
		if err := decodeBody(r, &patch); err != nil {
			log.Warn("todo_update_bad_body", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidBody})
			return
		}

		t, err := repo.Update(r.Context(), id, patch)
		switch {
		case errors.Is(err, ErrNotFound):
			log.Info("todo_update_not_found")
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgNotFound})
		case err != nil:
			internalError(w, log, "todo_update_failed", err)
		default:
			log.Info("todo_update_done")
			writeJSON(w, http.StatusOK, t)
		}
	}
}

func deleteTodo(repo Repository, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(slog.String("id", id))
		log.Debug("todo_delete_received")

		if !ValidID(id) {
			log.Warn("todo_delete_invalid_id")
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidID})
			return
		}

		_, err := repo.Delete(r.Context(), id)
		switch {
		case errors.Is(err, ErrNotFound):
			log.Info("todo_delete_not_found")
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgNotFound})
		case err != nil:
			internalError(w, log, "todo_delete_failed", err)
		default:
			log.Info("todo_delete_done")
			writeJSON(w, http.StatusOK, messageResponse{Message: msgDeleted})
		}
	}
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeBody decodes a single JSON value into v. An empty body leaves v
// untouched; anything but whitespace after the value is rejected.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		if err == nil {
			return errTrailingData
		}
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		slog.String("req_id", chimw.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// internalError logs the store error and answers with a generic 500.
func internalError(w http.ResponseWriter, log *slog.Logger, event string, err error) {
	log.Error(event, slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errResponse{Error: msgInternalServer})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
