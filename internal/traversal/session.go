package traversal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/rules"
)

var (
	// ErrEmptyRoot reports a traversal requested without a root path.
	ErrEmptyRoot = errors.New("root path is empty")
	// ErrRootNotFound reports a root path that does not exist.
	ErrRootNotFound = errors.New("root path does not exist")
	// ErrRootNotDirectory reports a root path that is not a directory.
	ErrRootNotDirectory = errors.New("root path is not a directory")
	// ErrInvalidDepth reports a maximum depth below one.
	ErrInvalidDepth = errors.New("max depth must be at least 1")
)

const (
	errorRootPathFormat = "%w: %s"
	errorStatRootFormat = "stat root %s: %w"
)

// Options configures one traversal session.
type Options struct {
	Root         string
	MaxDepth     int
	IncludeFiles bool
	Rules        *rules.RuleSet
	// Classifiers are consulted after Rules; the first exclusion wins.
	Classifiers []rules.Classifier
	Logger      *zap.Logger
}

// Session is the state of one traversal run: its configuration snapshot and its cooperative
// cancellation flag. A session is never reused; a new run creates a new session.
type Session struct {
	ID           string
	RootPath     string
	MaxDepth     int
	IncludeFiles bool
	Rules        *rules.RuleSet

	classifier rules.Chain
	logger     *zap.Logger

	parentContext    context.Context
	context          context.Context
	cancelContext    context.CancelFunc
	cancelled        atomic.Bool
	totalAtLevel     atomic.Int64
	processedAtLevel atomic.Int64
	done             chan struct{}
	finishOnce       sync.Once
}

// NewSession validates options and returns a session bound to ctx. Configuration errors are
// reported here, before any traversal work starts.
func NewSession(ctx context.Context, options Options) (*Session, error) {
	if strings.TrimSpace(options.Root) == "" {
		return nil, ErrEmptyRoot
	}
	if options.MaxDepth < 1 {
		return nil, ErrInvalidDepth
	}
	rootInfo, statError := os.Stat(options.Root)
	if statError != nil {
		if os.IsNotExist(statError) {
			return nil, fmt.Errorf(errorRootPathFormat, ErrRootNotFound, options.Root)
		}
		return nil, fmt.Errorf(errorStatRootFormat, options.Root, statError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootPathFormat, ErrRootNotDirectory, options.Root)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rulesSnapshot := options.Rules.Snapshot()
	classifier := rules.Chain{rulesSnapshot}
	classifier = append(classifier, options.Classifiers...)

	sessionContext, cancelContext := context.WithCancel(ctx)
	session := &Session{
		ID:            uuid.NewString(),
		RootPath:      filepath.Clean(options.Root),
		MaxDepth:      options.MaxDepth,
		IncludeFiles:  options.IncludeFiles,
		Rules:         rulesSnapshot,
		classifier:    classifier,
		parentContext: ctx,
		context:       sessionContext,
		cancelContext: cancelContext,
		done:          make(chan struct{}),
	}
	session.logger = logger.With(zap.String("session", session.ID))
	return session, nil
}

// Context returns the context that is cancelled together with the session.
func (session *Session) Context() context.Context {
	return session.context
}

// Cancel requests cooperative cancellation. It is safe to call from any goroutine.
func (session *Session) Cancel() {
	session.cancelled.Store(true)
	session.cancelContext()
}

// Cancelled reports whether cancellation was requested directly or through the context.
func (session *Session) Cancelled() bool {
	return session.cancelled.Load() || session.parentContext.Err() != nil
}

// Logger returns the session-scoped logger.
func (session *Session) Logger() *zap.Logger {
	return session.logger
}

// Done is closed once the session finished running.
func (session *Session) Done() <-chan struct{} {
	return session.done
}

// LevelProgress returns the processed and total entry counts of the directory currently
// being enumerated.
func (session *Session) LevelProgress() (int, int) {
	return int(session.processedAtLevel.Load()), int(session.totalAtLevel.Load())
}

func (session *Session) setLevelProgress(processed int, total int) {
	session.processedAtLevel.Store(int64(processed))
	session.totalAtLevel.Store(int64(total))
}

func (session *Session) finish() {
	session.finishOnce.Do(func() {
		session.cancelContext()
		close(session.done)
	})
}
