// Package docstore implements the document store over pretty-printed JSON
// files in the workspace data directory. Every call runs under the
// cross-process workspace lock; unreadable files are quarantined and replaced
// with defaults, and old schema versions are migrated on read.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harborlight/daybook/pkg/workspace/core/config"
	"github.com/harborlight/daybook/pkg/workspace/core/metrics"
	"github.com/harborlight/daybook/pkg/workspace/core/ports"
	"github.com/harborlight/daybook/pkg/workspace/core/schema"
	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
	"github.com/harborlight/daybook/pkg/workspace/support/util/serialization"
)

// moduleName is the module name used for error reporting in this package.
const moduleName = "docstore"

// quarantineTimestampLayout names quarantined files down to the nanosecond so
// repeated recoveries never overwrite an earlier quarantine copy.
const quarantineTimestampLayout = "20060102T150405.000000000"

// Store implements ports.DocumentStore over JSON files.
type Store struct {
	dataDir  string
	lock     ports.LockManager
	registry *schema.Registry
	recorder metrics.MetricRecorder
}

var _ ports.DocumentStore = (*Store)(nil)

// NewStore creates a new document Store rooted at the configured data directory.
// The directory is created if it does not exist yet.
// cfg: The application configuration.
// lock: The workspace lock manager guarding every store call.
// registry: The schema registry describing the known collections.
// recorder: The metric recorder for document access metrics.
// Returns: A new Store instance, or an error if the data directory cannot be created.
func NewStore(cfg *config.Config, lock ports.LockManager, registry *schema.Registry, recorder metrics.MetricRecorder) (*Store, error) {
	dataDir := cfg.Daybook.Workspace.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, exception.NewWorkspaceErrorf(moduleName, "failed to create data directory '%s'", dataDir, err)
	}
	return &Store{
		dataDir:  dataDir,
		lock:     lock,
		registry: registry,
		recorder: recorder,
	}, nil
}

// Read loads the named collection document under the workspace lock.
// See readLocked for the recovery and migration behavior.
func (s *Store) Read(ctx context.Context, name string) (map[string]interface{}, error) {
	var doc map[string]interface{}
	err := s.lock.WithLock(ctx, func(lockedCtx context.Context) error {
		var readErr error
		doc, readErr = s.readLocked(lockedCtx, name)
		return readErr
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Write validates and persists the named collection document under the workspace lock.
func (s *Store) Write(ctx context.Context, name string, doc map[string]interface{}) error {
	return s.lock.WithLock(ctx, func(lockedCtx context.Context) error {
		ft, err := s.registry.Lookup(name)
		if err != nil {
			return err
		}
		return s.writeLocked(lockedCtx, ft, doc)
	})
}

// Update performs a read-mutate-validate-write cycle within a single lock span.
// The mutator receives the lock-carrying context and the document as read; a
// nil document returned by the mutator skips the write. Every entity mutation
// in the workspace funnels through here, which is what makes concurrent
// read-modify-write cycles lose nothing.
func (s *Store) Update(ctx context.Context, name string, mutator func(ctx context.Context, doc map[string]interface{}) (map[string]interface{}, error)) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := s.lock.WithLock(ctx, func(lockedCtx context.Context) error {
		ft, err := s.registry.Lookup(name)
		if err != nil {
			return err
		}
		doc, err := s.readLocked(lockedCtx, name)
		if err != nil {
			return err
		}
		mutated, err := mutator(lockedCtx, doc)
		if err != nil {
			return err
		}
		if mutated == nil {
			result = doc
			return nil
		}
		if err := s.writeLocked(lockedCtx, ft, mutated); err != nil {
			return err
		}
		result = mutated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// readLocked loads, recovers, and migrates a collection document.
// A missing file yields the collection default. A file that cannot be parsed,
// carries no usable version, or fails validation is quarantined and replaced
// by the default: a single bad file must never take the whole workspace down,
// and the quarantine copy preserves every byte for manual recovery. The one
// exception is a document from a newer build, which is left untouched and
// reported as fatal. Documents at an older version are migrated and the
// migrated form is persisted immediately.
func (s *Store) readLocked(ctx context.Context, name string) (map[string]interface{}, error) {
	ft, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	path := s.documentPath(ft)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debugf("Collection '%s' has no document yet; starting from defaults.", name)
			s.recorder.RecordDocumentRead(ctx, name, metrics.OutcomeSuccess)
			return ft.DefaultFactory(), nil
		}
		s.recorder.RecordDocumentRead(ctx, name, metrics.OutcomeFailure)
		return nil, exception.NewWorkspaceErrorf(moduleName, "failed to read %s document", name, err)
	}

	var doc map[string]interface{}
	if err := serialization.UnmarshalDocument(data, &doc); err != nil {
		return s.quarantineAndDefault(ctx, ft, path, "cannot be parsed", err)
	}
	if len(doc) == 0 {
		return s.quarantineAndDefault(ctx, ft, path, "is empty", nil)
	}

	version, err := schema.DocumentVersion(doc)
	if err != nil {
		return s.quarantineAndDefault(ctx, ft, path, "has no usable version", err)
	}
	if version > ft.CurrentVersion {
		s.recorder.RecordDocumentRead(ctx, name, metrics.OutcomeFailure)
		return nil, exception.NewUnsupportedFutureVersionError(moduleName,
			fmt.Sprintf("%s document version %d is newer than supported version %d; refusing to read it", name, version, ft.CurrentVersion), nil)
	}
	if err := ft.Validate(version, doc); err != nil {
		return s.quarantineAndDefault(ctx, ft, path, fmt.Sprintf("failed version %d validation", version), err)
	}

	if version < ft.CurrentVersion {
		migrated, err := ft.Migrate(doc, version)
		if err != nil {
			s.recorder.RecordDocumentRead(ctx, name, metrics.OutcomeFailure)
			return nil, err
		}
		if err := ft.Validate(ft.CurrentVersion, migrated); err != nil {
			return s.quarantineAndDefault(ctx, ft, path, "migrated into an invalid document", err)
		}
		if err := s.writeLocked(ctx, ft, migrated); err != nil {
			return nil, err
		}
		s.recorder.RecordMigration(ctx, name, version, ft.CurrentVersion)
		logger.Infof("Migrated %s document from version %d to %d.", name, version, ft.CurrentVersion)
		s.recorder.RecordDocumentRead(ctx, name, metrics.OutcomeSuccess)
		return migrated, nil
	}

	s.recorder.RecordDocumentRead(ctx, name, metrics.OutcomeSuccess)
	return doc, nil
}

// writeLocked validates doc against the collection's current schema and
// persists it atomically. Nothing reaches the disk if validation fails.
func (s *Store) writeLocked(ctx context.Context, ft *schema.FileType, doc map[string]interface{}) error {
	version, err := schema.DocumentVersion(doc)
	if err != nil {
		s.recorder.RecordDocumentWrite(ctx, ft.Name, metrics.OutcomeFailure)
		return exception.NewValidationError(moduleName, fmt.Sprintf("%s document to write has no usable version", ft.Name), err)
	}
	if version != ft.CurrentVersion {
		s.recorder.RecordDocumentWrite(ctx, ft.Name, metrics.OutcomeFailure)
		return exception.NewValidationError(moduleName,
			fmt.Sprintf("%s document to write has version %d, want %d", ft.Name, version, ft.CurrentVersion), nil)
	}
	if err := ft.Validate(ft.CurrentVersion, doc); err != nil {
		s.recorder.RecordDocumentWrite(ctx, ft.Name, metrics.OutcomeFailure)
		return err
	}

	data, err := serialization.MarshalDocument(doc)
	if err != nil {
		s.recorder.RecordDocumentWrite(ctx, ft.Name, metrics.OutcomeFailure)
		return err
	}
	if err := writeFileAtomic(s.documentPath(ft), data); err != nil {
		s.recorder.RecordDocumentWrite(ctx, ft.Name, metrics.OutcomeFailure)
		return exception.NewWorkspaceErrorf(moduleName, "failed to persist %s document", ft.Name, err)
	}
	s.recorder.RecordDocumentWrite(ctx, ft.Name, metrics.OutcomeSuccess)
	return nil
}

// quarantineAndDefault moves an unreadable document aside under a timestamped
// name and returns the collection default in its place.
func (s *Store) quarantineAndDefault(ctx context.Context, ft *schema.FileType, path, reason string, cause error) (map[string]interface{}, error) {
	quarantinePath := fmt.Sprintf("%s.corrupted.%s", path, time.Now().Format(quarantineTimestampLayout))
	wsErr := exception.NewCorruptedFileError(moduleName,
		fmt.Sprintf("%s document %s; quarantining to %s", ft.Name, reason, filepath.Base(quarantinePath)), cause)
	logger.Errorf("%v", wsErr)

	if err := os.Rename(path, quarantinePath); err != nil {
		s.recorder.RecordDocumentRead(ctx, ft.Name, metrics.OutcomeFailure)
		return nil, exception.NewWorkspaceErrorf(moduleName, "failed to quarantine corrupted %s document", ft.Name, err)
	}
	s.recorder.RecordQuarantine(ctx, ft.Name)
	s.recorder.RecordDocumentRead(ctx, ft.Name, metrics.OutcomeQuarantined)
	return ft.DefaultFactory(), nil
}

// documentPath returns the on-disk path of a collection document.
func (s *Store) documentPath(ft *schema.FileType) string {
	return filepath.Join(s.dataDir, ft.FileName)
}

// writeFileAtomic writes data to path via a temp file in the same directory so
// the swap is a single rename: a reader sees either the old document or the
// new one, never a torn write. The file is synced before the rename and the
// directory after it.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
