// Package schema defines the versioned document schemas of the workspace
// collections: per-version validators, stepwise migrations between versions,
// and default documents for fresh workspaces.
package schema

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// moduleName is the module name used for error reporting in this package.
const moduleName = "schema"

// Validator checks a document against the rules of one schema version.
type Validator func(doc map[string]interface{}) error

// MigrationStep transforms a document from one schema version to the next.
// Steps must be total: unexpected shapes are defaulted with a logged warning,
// never rejected, so that any structurally parseable old document migrates.
// Steps do not touch the version field; the engine advances it after each step.
type MigrationStep func(doc map[string]interface{}) map[string]interface{}

// FileType describes one versioned collection document.
type FileType struct {
	// Name is the collection name (e.g., "tasks").
	Name string
	// FileName is the document file name within the workspace data directory.
	FileName string
	// CurrentVersion is the schema version this build reads and writes.
	CurrentVersion int
	// DefaultFactory builds the default document used for a fresh workspace or
	// after an unreadable file has been quarantined.
	DefaultFactory func() map[string]interface{}
	// Validators maps each known schema version to its validator.
	Validators map[int]Validator
	// Steps maps each old schema version to the migration producing the next one.
	Steps map[int]MigrationStep
}

// DocumentVersion extracts the schema version from a document.
// JSON decoding yields float64 numbers while in-memory documents may carry int,
// so both are accepted. A missing or non-integer version cannot be told apart
// from corruption and is reported as an error.
//
// doc: The document to inspect.
// Returns: The schema version, or an error if the version field is missing or malformed.
func DocumentVersion(doc map[string]interface{}) (int, error) {
	raw, ok := doc["version"]
	if !ok {
		return 0, exception.NewWorkspaceErrorf(moduleName, "document has no version field")
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, exception.NewWorkspaceErrorf(moduleName, "document version %v is not an integer", v)
		}
		return int(v), nil
	default:
		return 0, exception.NewWorkspaceErrorf(moduleName, "document version has unexpected type %T", raw)
	}
}

// Validate checks doc against the validator registered for the given version.
// version: The schema version to validate against.
// doc: The document to validate.
// Returns: A validation error if the document violates the version's rules.
func (ft *FileType) Validate(version int, doc map[string]interface{}) error {
	validator, ok := ft.Validators[version]
	if !ok {
		return exception.NewWorkspaceErrorf(moduleName, "no validator registered for %s version %d", ft.Name, version)
	}
	if err := validator(doc); err != nil {
		return exception.NewValidationError(moduleName, fmt.Sprintf("%s document failed version %d validation", ft.Name, version), err)
	}
	return nil
}

// Migrate transforms doc from the given version up to CurrentVersion, applying
// one step per version. A document already at CurrentVersion is returned
// unchanged. A document from a newer build is never migrated: attempting to
// interpret it could silently drop data, so a fatal error is returned instead.
//
// doc: The document to migrate.
// from: The document's stored schema version.
// Returns: The migrated document, or an error if migration is impossible.
func (ft *FileType) Migrate(doc map[string]interface{}, from int) (map[string]interface{}, error) {
	if from == ft.CurrentVersion {
		return doc, nil
	}
	if from > ft.CurrentVersion {
		return nil, exception.NewUnsupportedFutureVersionError(moduleName,
			fmt.Sprintf("%s document version %d is newer than supported version %d; refusing to read it", ft.Name, from, ft.CurrentVersion), nil)
	}

	migrated := doc
	for v := from; v < ft.CurrentVersion; v++ {
		step, ok := ft.Steps[v]
		if !ok {
			return nil, exception.NewWorkspaceError(moduleName,
				fmt.Sprintf("no migration step registered from %s version %d", ft.Name, v), nil, false, true)
		}
		logger.Infof("Migrating %s document from version %d to %d.", ft.Name, v, v+1)
		migrated = step(migrated)
		migrated["version"] = v + 1
	}
	return migrated, nil
}

// Registry holds the known collection file types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*FileType
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*FileType),
	}
}

// Register adds a file type to the registry after checking that its version
// tables are complete: a validator for every version 1..CurrentVersion and a
// migration step for every version 1..CurrentVersion-1. An incomplete file
// type would strand documents mid-migration, so registration fails instead.
//
// ft: The file type to register.
// Returns: An error if the file type is incomplete or already registered.
func (r *Registry) Register(ft *FileType) error {
	var result *multierror.Error
	if ft.Name == "" {
		result = multierror.Append(result, fmt.Errorf("file type has no name"))
	}
	if ft.FileName == "" {
		result = multierror.Append(result, fmt.Errorf("file type has no file name"))
	}
	if ft.CurrentVersion < 1 {
		result = multierror.Append(result, fmt.Errorf("current version must be at least 1, got %d", ft.CurrentVersion))
	}
	if ft.DefaultFactory == nil {
		result = multierror.Append(result, fmt.Errorf("file type has no default factory"))
	}
	for v := 1; v <= ft.CurrentVersion; v++ {
		if _, ok := ft.Validators[v]; !ok {
			result = multierror.Append(result, fmt.Errorf("missing validator for version %d", v))
		}
	}
	for v := 1; v < ft.CurrentVersion; v++ {
		if _, ok := ft.Steps[v]; !ok {
			result = multierror.Append(result, fmt.Errorf("missing migration step from version %d", v))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return exception.NewWorkspaceErrorf(moduleName, "cannot register file type %q", ft.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[ft.Name]; exists {
		return exception.NewWorkspaceErrorf(moduleName, "file type %q is already registered", ft.Name)
	}
	r.types[ft.Name] = ft
	logger.Debugf("Registered file type '%s' (file=%s, currentVersion=%d).", ft.Name, ft.FileName, ft.CurrentVersion)
	return nil
}

// Lookup retrieves a registered file type by collection name.
// name: The collection name.
// Returns: The file type, or an error if the name is unknown.
func (r *Registry) Lookup(name string) (*FileType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ft, ok := r.types[name]
	if !ok {
		return nil, exception.NewWorkspaceErrorf(moduleName, "unknown collection %q", name)
	}
	return ft, nil
}

// Names returns the registered collection names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewWorkspaceRegistry builds the registry holding the built-in workspace
// collections: tasks, journal, and chat.
// Returns: The populated registry, or an error if a built-in file type is incomplete.
func NewWorkspaceRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, ft := range []*FileType{TasksFileType(), JournalFileType(), ChatFileType()} {
		if err := r.Register(ft); err != nil {
			return nil, err
		}
	}
	return r, nil
}
