package traversal

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Engine runs at most one session at a time. Starting a new run cancels the active session
// and any run still waiting to start, then waits for the engine before it begins. Only the
// newest request can be pending.
type Engine struct {
	runMutex   sync.Mutex
	stateMutex sync.Mutex
	active     *Session
	pending    *Session
	logger     *zap.Logger
}

// NewEngine returns an idle engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Execute creates a session from options and hands it to work while holding the engine. The
// session is finished when work returns.
func (engine *Engine) Execute(ctx context.Context, options Options, work func(*Session) error) error {
	if options.Logger == nil {
		options.Logger = engine.logger
	}
	session, sessionError := NewSession(ctx, options)
	if sessionError != nil {
		return sessionError
	}

	engine.stateMutex.Lock()
	engine.cancelLocked()
	engine.pending = session
	engine.stateMutex.Unlock()

	engine.runMutex.Lock()
	defer engine.runMutex.Unlock()

	engine.stateMutex.Lock()
	if engine.pending == session {
		engine.pending = nil
	}
	engine.active = session
	engine.stateMutex.Unlock()

	defer func() {
		engine.stateMutex.Lock()
		if engine.active == session {
			engine.active = nil
		}
		engine.stateMutex.Unlock()
		session.finish()
	}()

	session.logger.Debug("session started", zap.String("root", session.RootPath), zap.Int("max_depth", session.MaxDepth))
	return work(session)
}

// Run walks the subtree described by options and delivers events to handler.
func (engine *Engine) Run(ctx context.Context, options Options, handler Handler) (Result, error) {
	var result Result
	executeError := engine.Execute(ctx, options, func(session *Session) error {
		var walkError error
		result, walkError = Walk(session, handler)
		return walkError
	})
	return result, executeError
}

// Cancel requests cancellation of the active session and of the pending one, if any.
func (engine *Engine) Cancel() {
	engine.stateMutex.Lock()
	defer engine.stateMutex.Unlock()
	engine.cancelLocked()
}

func (engine *Engine) cancelLocked() {
	if engine.active != nil {
		engine.active.Cancel()
	}
	if engine.pending != nil {
		engine.pending.Cancel()
	}
}

// Running reports whether a session is active.
func (engine *Engine) Running() bool {
	engine.stateMutex.Lock()
	defer engine.stateMutex.Unlock()
	return engine.active != nil
}

// Active returns the active session or nil.
func (engine *Engine) Active() *Session {
	engine.stateMutex.Lock()
	defer engine.stateMutex.Unlock()
	return engine.active
}

// Pending returns the session waiting for the active one to finish, or nil.
func (engine *Engine) Pending() *Session {
	engine.stateMutex.Lock()
	defer engine.stateMutex.Unlock()
	return engine.pending
}

// Run walks with a throwaway engine.
func Run(ctx context.Context, options Options, handler Handler) (Result, error) {
	return NewEngine(options.Logger).Run(ctx, options, handler)
}
