// Package lock implements the cross-process workspace lock as a sentinel file
// inside the workspace data directory. Exclusive creation of the sentinel is
// the lock primitive; a token stored in the sentinel lets the holder verify at
// release time that the lock was not taken over while held.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harborlight/daybook/pkg/workspace/core/config"
	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/core/metrics"
	"github.com/harborlight/daybook/pkg/workspace/core/ports"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// moduleName is the module name used for error reporting in this package.
const moduleName = "lock"

// SentinelFileName is the name of the lock sentinel file within the data directory.
const SentinelFileName = "workspace.lock"

// sentinelPayload is the JSON content written into the sentinel file. The
// token identifies this process's hold so a takeover can be detected at
// release time; pid and acquiredAt exist for humans inspecting a stuck lock.
type sentinelPayload struct {
	Token      string    `json:"token"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// lockStateKey is the context key under which the in-process lock handle travels.
type lockStateKey struct{}

// lockState is the in-process lock handle. It is carried by the context passed
// to the guarded function, which is what makes nested WithLock calls re-enter
// the existing hold instead of deadlocking against their own sentinel.
type lockState struct {
	path  string
	token string
	depth int
}

// Manager implements ports.LockManager using a sentinel file.
type Manager struct {
	sentinelPath string
	cfg          config.LockConfig
	recorder     metrics.MetricRecorder
}

var _ ports.LockManager = (*Manager)(nil)

// NewManager creates a new lock Manager guarding the workspace configured in cfg.
// The data directory is created if it does not exist yet.
// cfg: The application configuration.
// recorder: The metric recorder for lock acquisition metrics.
// Returns: A new Manager instance, or an error if the data directory cannot be created.
func NewManager(cfg *config.Config, recorder metrics.MetricRecorder) (*Manager, error) {
	dataDir := cfg.Daybook.Workspace.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, exception.NewWorkspaceErrorf(moduleName, "failed to create data directory '%s'", dataDir, err)
	}
	return &Manager{
		sentinelPath: filepath.Join(dataDir, SentinelFileName),
		cfg:          cfg.Daybook.Workspace.Lock,
		recorder:     recorder,
	}, nil
}

// SentinelPath returns the path of the sentinel file this manager guards.
func (m *Manager) SentinelPath() string {
	return m.sentinelPath
}

// WithLock runs fn while holding the workspace lock.
// If ctx already carries this manager's lock handle the hold is re-entered:
// fn runs immediately and the sentinel is only released by the outermost call.
// Otherwise the sentinel is acquired with backoff, fn runs with the handle in
// its context, and the sentinel is verified and removed afterwards.
func (m *Manager) WithLock(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if state, ok := ctx.Value(lockStateKey{}).(*lockState); ok && state.path == m.sentinelPath {
		state.depth++
		defer func() { state.depth-- }()
		logger.Debugf("Re-entering held workspace lock (depth=%d).", state.depth)
		m.recorder.RecordLockAcquire(ctx, metrics.OutcomeReentrant, 0, 0)
		return fn(ctx)
	}

	start := time.Now()
	token, attempts, err := m.acquire(ctx)
	if err != nil {
		m.recorder.RecordLockAcquire(ctx, metrics.OutcomeBusy, time.Since(start), attempts)
		return err
	}
	m.recorder.RecordLockAcquire(ctx, metrics.OutcomeSuccess, time.Since(start), attempts)

	state := &lockState{path: m.sentinelPath, token: token, depth: 1}
	lockedCtx := context.WithValue(ctx, lockStateKey{}, state)

	defer func() {
		if relErr := m.release(token); relErr != nil {
			m.recorder.RecordLockAcquire(ctx, metrics.OutcomeCompromised, time.Since(start), attempts)
			logger.Errorf("Workspace lock compromised: %v", relErr)
			if err != nil {
				err = errors.Join(relErr, err)
			} else {
				err = relErr
			}
		}
	}()

	return fn(lockedCtx)
}

// acquire creates the sentinel file, retrying with exponential backoff while
// another process holds it. A sentinel older than the staleness threshold is
// assumed to be left over from a crashed process and is broken.
// Returns the hold token and the number of attempts made.
func (m *Manager) acquire(ctx context.Context) (string, int, error) {
	token := model.NewID()
	interval := m.cfg.InitialBackoff()
	attempts := 0

	for attempts < m.cfg.MaxAttempts {
		attempts++

		created, err := m.tryCreateSentinel(token)
		if err != nil {
			return "", attempts, exception.NewWorkspaceError(moduleName, "failed to create lock sentinel", err, false, false)
		}
		if created {
			logger.Debugf("Acquired workspace lock on attempt %d.", attempts)
			return token, attempts, nil
		}

		if m.breakIfStale() {
			// The stale sentinel is gone; retry immediately without burning backoff time.
			continue
		}

		if attempts == m.cfg.MaxAttempts {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return "", attempts, exception.NewWorkspaceError(moduleName, "lock acquisition canceled", ctx.Err(), false, false)
		}
		interval = time.Duration(float64(interval) * m.cfg.Factor)
		if maxInterval := m.cfg.MaxBackoff(); interval > maxInterval {
			interval = maxInterval
		}
	}

	return "", attempts, exception.NewLockUnavailableError(moduleName,
		fmt.Sprintf("workspace is locked by another process; gave up after %d attempts", attempts), nil)
}

// tryCreateSentinel attempts to create the sentinel file exclusively.
// Returns (false, nil) when the sentinel already exists.
func (m *Manager) tryCreateSentinel(token string) (bool, error) {
	f, err := os.OpenFile(m.sentinelPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}

	payload := sentinelPayload{Token: token, PID: os.Getpid(), AcquiredAt: time.Now()}
	data, err := json.Marshal(payload)
	if err == nil {
		_, err = f.Write(data)
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// A half-written sentinel could never be verified as ours at release
		// time, so remove it and report the failure.
		_ = os.Remove(m.sentinelPath)
		return false, err
	}
	return true, nil
}

// breakIfStale removes the sentinel if it is older than the staleness
// threshold. Returns true when the sentinel is gone and acquisition should be
// retried immediately.
func (m *Manager) breakIfStale() bool {
	info, err := os.Stat(m.sentinelPath)
	if err != nil {
		// The holder released between our create attempt and this stat.
		return os.IsNotExist(err)
	}
	age := time.Since(info.ModTime())
	if age <= m.cfg.StaleAfter() {
		return false
	}

	payload, _ := m.readSentinel()
	logger.Warnf("Breaking stale workspace lock (age=%s, holder pid=%d).", age.Round(time.Millisecond), payload.PID)
	if err := os.Remove(m.sentinelPath); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to remove stale lock sentinel: %v", err)
		return false
	}
	return true
}

// release verifies the sentinel still records our hold and removes it.
// A missing or foreign sentinel means mutual exclusion may have been violated
// while fn ran, which no retry can repair; the returned error is fatal.
// A foreign sentinel is deliberately left in place: removing it would
// compromise the current holder as well.
func (m *Manager) release(token string) error {
	payload, err := m.readSentinel()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exception.NewLockCompromisedError(moduleName,
				"lock sentinel disappeared while held; another process may have entered the workspace", nil)
		}
		return exception.NewLockCompromisedError(moduleName, "lock sentinel became unreadable while held", err)
	}
	if payload.Token != token {
		return exception.NewLockCompromisedError(moduleName,
			fmt.Sprintf("lock sentinel was taken over while held (current holder pid %d)", payload.PID), nil)
	}
	if err := os.Remove(m.sentinelPath); err != nil {
		return exception.NewLockCompromisedError(moduleName, "failed to remove lock sentinel at release", err)
	}
	return nil
}

// readSentinel reads and decodes the sentinel file.
func (m *Manager) readSentinel() (sentinelPayload, error) {
	var payload sentinelPayload
	data, err := os.ReadFile(m.sentinelPath)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
