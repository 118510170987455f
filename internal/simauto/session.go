package simauto

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"gridauto/internal/logging"
)

// Options configures a Session.
type Options struct {
	// Endpoint is the automation-server transport. Required.
	Endpoint Endpoint
	// Logger receives call diagnostics. Nil means silent.
	Logger *slog.Logger
	// CasePath is the model file opened on the server at session start.
	// Empty skips the open; OpenCase can be called later.
	CasePath string
	// LockDir holds per-case lock files. Defaults to the OS temp dir.
	LockDir string
	// CreateIfNotFound makes change calls create missing objects.
	CreateIfNotFound bool
	// UIVisible shows the server's user interface.
	UIVisible bool
	// PrefetchTypes lists object types whose field catalogs are fetched
	// eagerly at session start.
	PrefetchTypes []string
	// VerifySkipFields maps object types to fields excluded from
	// change-and-confirm verification, for values that legitimately
	// differ after a solve.
	VerifySkipFields map[string][]string
	// VerifyTolerance is the relative tolerance for numeric comparison
	// during verification. Zero selects the default.
	VerifyTolerance float64
}

const defaultVerifyTolerance = 1e-5

// Session owns one connection to the automation server. The server is a
// single-threaded stateful resource, so all calls are serialized behind a
// mutex; the field-catalog cache lives for exactly as long as the session.
type Session struct {
	id       string
	endpoint Endpoint
	logger   *slog.Logger

	// callMu serializes endpoint access: at most one in-flight call.
	callMu   sync.Mutex
	closed   bool
	casePath string

	lock *flock.Flock

	// catalogMu guards catalog population so concurrent lookups of the
	// same object type construct the catalog once.
	catalogMu sync.Mutex
	catalogs  map[string]*FieldCatalog

	verifySkip map[string]map[string]struct{}
	tolerance  float64
}

// Open establishes a session: it acquires the per-case lock, applies the
// configured server properties, opens the case, and prefetches any
// requested field catalogs.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Endpoint == nil {
		return nil, fmt.Errorf("session requires an endpoint")
	}

	id := uuid.NewString()
	logger := logging.NewComponentLogger(opts.Logger, "simauto").
		With(logging.String(logging.FieldSession, id))

	s := &Session{
		id:         id,
		endpoint:   opts.Endpoint,
		logger:     logger,
		catalogs:   make(map[string]*FieldCatalog),
		verifySkip: foldSkipFields(opts.VerifySkipFields),
		tolerance:  opts.VerifyTolerance,
	}
	if s.tolerance <= 0 {
		s.tolerance = defaultVerifyTolerance
	}

	if opts.CasePath != "" {
		lock, err := acquireCaseLock(opts.LockDir, opts.CasePath)
		if err != nil {
			return nil, err
		}
		s.lock = lock
	}

	if err := s.start(ctx, opts); err != nil {
		s.releaseLock()
		return nil, err
	}
	return s, nil
}

func (s *Session) start(ctx context.Context, opts Options) error {
	if err := s.SetProperty(ctx, "CreateIfNotFound", opts.CreateIfNotFound); err != nil {
		return err
	}
	if err := s.SetProperty(ctx, "UIVisible", opts.UIVisible); err != nil {
		return err
	}
	if opts.CasePath != "" {
		if err := s.OpenCase(ctx, opts.CasePath); err != nil {
			return err
		}
	}
	for _, objectType := range opts.PrefetchTypes {
		if _, err := s.Catalog(ctx, objectType); err != nil {
			return fmt.Errorf("prefetch catalog %s: %w", objectType, err)
		}
	}
	return nil
}

// ID returns the session's correlation id.
func (s *Session) ID() string { return s.id }

// CasePath returns the path of the currently open case, if any.
func (s *Session) CasePath() string {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	return s.casePath
}

// Call invokes a named server function with positional parameters and
// returns the raw payload. The server's error flag is converted into a
// CallError; the payload is discarded in that case. No retries happen
// here: server failures are typically deterministic, so retry policy
// belongs to the caller.
func (s *Session) Call(ctx context.Context, function string, params ...any) ([]any, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	return s.callLocked(ctx, function, params...)
}

func (s *Session) callLocked(ctx context.Context, function string, params ...any) ([]any, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, function)
	}

	start := time.Now()
	reply, err := s.endpoint.Invoke(ctx, function, params)
	if err != nil {
		return nil, fmt.Errorf("%w: invoke %s: %w", ErrEndpoint, function, err)
	}

	flag := strings.TrimSpace(reply.ErrorFlag)
	if flag != "" && !strings.Contains(flag, "No data") {
		message := strings.TrimSpace(reply.ErrorMessage)
		if message == "" {
			message = flag
		}
		s.logger.Debug("server reported error",
			logging.String(logging.FieldFunction, function),
			logging.String("message", message))
		return nil, &CallError{Function: function, Message: message}
	}

	s.logger.Debug("call complete",
		logging.String(logging.FieldFunction, function),
		logging.Int("payload_len", len(reply.Payload)),
		logging.Duration("elapsed", time.Since(start)))
	return reply.Payload, nil
}

// simautoProperties lists the server properties settable through
// SetProperty and the value type each accepts.
var simautoProperties = map[string]string{
	"CreateIfNotFound": "bool",
	"CurrentDir":       "string",
	"UIVisible":        "bool",
}

// SetProperty sets one of the supported server properties.
func (s *Session) SetProperty(ctx context.Context, name string, value any) error {
	kind, ok := simautoProperties[name]
	if !ok {
		names := make([]string, 0, len(simautoProperties))
		for n := range simautoProperties {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("unsupported property %q, valid properties: %s", name, strings.Join(names, ", "))
	}

	switch kind {
	case "bool":
		if _, isBool := value.(bool); !isBool {
			return fmt.Errorf("property %s requires a bool, got %T", name, value)
		}
	case "string":
		str, isString := value.(string)
		if !isString {
			return fmt.Errorf("property %s requires a string, got %T", name, value)
		}
		// The server does not validate CurrentDir itself.
		if name == "CurrentDir" {
			if info, err := os.Stat(str); err != nil || !info.IsDir() {
				return fmt.Errorf("property CurrentDir: %q is not a directory", str)
			}
		}
	}

	_, err := s.Call(ctx, "SetSimAutoProperty", name, value)
	return err
}

// Close closes the open case, releases the case lock, and shuts down the
// endpoint. The catalog cache dies with the session; catalogs are never
// valid outside the session that built them.
func (s *Session) Close() error {
	s.callMu.Lock()
	if s.closed {
		s.callMu.Unlock()
		return nil
	}
	if _, err := s.callLocked(context.Background(), "CloseCase"); err != nil {
		s.logger.Warn("close case failed", logging.Error(err))
	}
	s.closed = true
	s.casePath = ""
	s.callMu.Unlock()

	s.catalogMu.Lock()
	s.catalogs = make(map[string]*FieldCatalog)
	s.catalogMu.Unlock()

	s.releaseLock()
	return s.endpoint.Close()
}

func (s *Session) releaseLock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("release case lock failed", logging.Error(err))
	}
	s.lock = nil
}

func acquireCaseLock(lockDir, casePath string) (*flock.Flock, error) {
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	abs, err := filepath.Abs(casePath)
	if err != nil {
		abs = casePath
	}
	digest := fnv.New64a()
	digest.Write([]byte(abs))
	lockPath := filepath.Join(lockDir, fmt.Sprintf("gridauto-%x.lock", digest.Sum64()))

	lock := flock.New(lockPath)
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire case lock: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("case %s is already open in another session", casePath)
	}
	return lock, nil
}

// fold case-normalizes identifiers for lookup keys.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func foldSkipFields(skip map[string][]string) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(skip))
	for objectType, fields := range skip {
		set := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			set[fold(f)] = struct{}{}
		}
		out[fold(objectType)] = set
	}
	return out
}
