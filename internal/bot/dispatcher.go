package bot

import (
	"log/slog"
	"sync"

	"github.com/botmakerhq/hostbot/internal/bot/handlers"
	"github.com/botmakerhq/hostbot/internal/session"
)

// Dispatcher maps workflow states to the handlers that consume their input.
type Dispatcher struct {
	stateHandlers map[session.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		stateHandlers: make(map[session.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided workflow state.
func (d *Dispatcher) RegisterStateHandler(s session.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Handler returns the handler owning the given state, or nil.
func (d *Dispatcher) Handler(s session.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
