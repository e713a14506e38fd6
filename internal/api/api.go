// Package api exposes the todo store over HTTP+JSON.
//
// Routes:
//
//	GET    /api/todos               list, priority then id order
//	POST   /api/todos               add {text, priority}
//	DELETE /api/todos/{id}          delete by id
//	GET    /api/missing-priorities  unused priorities in [1, max], 422 past store.MaxGaps
//	GET    /healthz                 liveness
//
// The handler checks wire shape (JSON types, integer path ids) and leaves
// business rules to the store.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/store"
)

type handler struct {
	store  store.Store
	logger *log.Logger
}

// New returns the HTTP handler for s.
func New(s store.Store, logger *log.Logger) http.Handler {
	h := &handler{store: s, logger: logger}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	// Routes stay on the root router with full paths. Under a PathPrefix
	// subrouter mux reports some wrong-method requests as 404.
	r.HandleFunc("/api/todos", h.listTodos).Methods(http.MethodGet)
	r.HandleFunc("/api/todos", h.createTodo).Methods(http.MethodPost)
	r.HandleFunc("/api/todos", preflight).Methods(http.MethodOptions)
	r.HandleFunc("/api/todos/{id}", h.deleteTodo).Methods(http.MethodDelete)
	r.HandleFunc("/api/todos/{id}", preflight).Methods(http.MethodOptions)
	r.HandleFunc("/api/missing-priorities", h.missingPriorities).Methods(http.MethodGet)
	r.HandleFunc("/api/missing-priorities", preflight).Methods(http.MethodOptions)
	r.Use(mux.CORSMethodMiddleware(r), cors)

	return requestID(accessLog(logger)(r))
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listTodos handles GET /api/todos
func (h *handler) listTodos(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.internalError(w, r, "list todos", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// createTodo handles POST /api/todos
func (h *handler) createTodo(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTodoInput(r.Body)
	if err != nil {
		h.logger.Debug("rejected todo body", "err", err, "request_id", r.Header.Get(RequestIDHeader))
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}

	item, err := h.add(r, in)
	if err == nil {
		writeJSON(w, http.StatusCreated, item)
		return
	}

	var ve *store.ValidationError
	if errors.As(err, &ve) {
		h.logger.Debug("todo failed validation", "reason", ve.Message, "request_id", r.Header.Get(RequestIDHeader))
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	h.internalError(w, r, "add todo", err)
}

func (h *handler) add(r *http.Request, in todoInput) (model.Item, error) {
	priority, err := store.ParsePriority(in.Priority.String())
	if err != nil {
		return model.Item{}, err
	}
	return h.store.Add(r.Context(), in.Text, priority)
}

// deleteTodo handles DELETE /api/todos/{id}
func (h *handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	ok, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.internalError(w, r, "delete todo", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msgDeleted})
}

// missingPriorities handles GET /api/missing-priorities
func (h *handler) missingPriorities(w http.ResponseWriter, r *http.Request) {
	missing, err := h.store.MissingPriorities(r.Context())
	if errors.Is(err, store.ErrTooManyGaps) {
		writeError(w, http.StatusUnprocessableEntity, msgTooManyGaps)
		return
	}
	if err != nil {
		h.internalError(w, r, "missing priorities", err)
		return
	}
	writeJSON(w, http.StatusOK, missing)
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("store failure", "op", op, "err", err, "request_id", r.Header.Get(RequestIDHeader))
	writeError(w, http.StatusInternalServerError, msgInternalError)
}
