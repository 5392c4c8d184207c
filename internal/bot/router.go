package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/bot/handlers"
	"github.com/botmakerhq/hostbot/internal/session"
)

// Router dispatches incoming updates. Document attachments go straight to
// the upload handler. For text, the user's workflow state wins over command
// parsing: a user mid-workflow sent "/list" is giving the workflow the
// literal input "/list", not issuing a command.
type Router struct {
	mu              sync.RWMutex
	commands        map[string]handlers.Handler
	documentHandler handlers.Handler
	defaultHandler  handlers.Handler
	middlewares     []handlers.Middleware
	dispatcher      *Dispatcher
	sessions        session.Manager
	log             *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, sessions session.Manager, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		middlewares: make([]handlers.Middleware, 0),
		dispatcher:  dispatcher,
		sessions:    sessions,
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command. Lookup is
// case-insensitive.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd)] = h
}

// SetDocumentHandler sets the handler for document attachments.
func (r *Router) SetDocumentHandler(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documentHandler = h
}

// SetDefault sets the fallback handler for unmatched input.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if msg := c.Message(); msg != nil && msg.Document != nil {
		if handler := r.getDocumentHandler(); handler != nil {
			return r.executeHandler(handler, c)
		}
		return nil
	}

	current, err := r.currentState(c)
	if err != nil {
		return err
	}

	if current != session.StateNone {
		if handler := r.dispatcher.Handler(current); handler != nil {
			return r.executeHandler(handler, c)
		}

		// A state without a handler is unrecoverable for the user; drop
		// the session rather than trapping them in it.
		r.log.Warn("no handler registered for state", "state", current)
		if c.Sender() != nil {
			if resetErr := r.sessions.Reset(context.Background(), c.Sender().ID); resetErr != nil {
				r.log.Error("failed to reset orphaned session", "error", resetErr)
			}
		}
	}

	if cmd := normalizeCommand(c.Text()); cmd != "" {
		if handler := r.getCommandHandler(cmd); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	if handler := r.getDefaultHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	return nil
}

func (r *Router) currentState(c telebot.Context) (session.State, error) {
	if c.Sender() == nil {
		return session.StateNone, nil
	}

	return r.sessions.Current(context.Background(), c.Sender().ID)
}

// normalizeCommand extracts the lowercased command from a message text,
// dropping the @botname suffix. It returns "" for non-command text.
func normalizeCommand(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	cmd := strings.Fields(text)[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	return strings.ToLower(cmd)
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDocumentHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.documentHandler
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
