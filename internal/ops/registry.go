package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
)

// Factory method names resolvable through the Registry.
const (
	MethodProjectGet  = "project.get"  // args: id string
	MethodProjectNew  = "project.new"  // no args
	MethodProjectList = "project.list" // optional args: status string
)

// Registry resolves named factory methods into models, implementing the
// binder's Factory contract.
type Registry struct {
	db  *sql.DB
	cfg *config.Config
}

// NewRegistry creates a Registry over the given database. Models it
// produces carry cfg's validation bounds.
func NewRegistry(database *sql.DB, cfg *config.Config) *Registry {
	return &Registry{db: database, cfg: cfg}
}

// Invoke dispatches a named factory method. Unknown methods and malformed
// arguments fail with INVALID_REQUEST.
func (r *Registry) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	switch method {
	case MethodProjectGet:
		id, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		return Get(r.db, r.cfg, GetInput{ID: id})

	case MethodProjectNew:
		if len(args) != 0 {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("%s takes no arguments", method))
		}
		return NewProject(r.db, r.cfg), nil

	case MethodProjectList:
		status := ""
		if len(args) > 0 {
			s, err := stringArg(method, args, 0)
			if err != nil {
				return nil, err
			}
			status = s
		}
		return ListModels(r.db, r.cfg, status)

	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown factory method %q", method))
	}
}

// stringArg extracts args[i] as a non-empty string.
func stringArg(method string, args []any, i int) (string, error) {
	if len(args) <= i {
		return "", errors.NewInvalidRequest(fmt.Sprintf("%s: missing argument %d", method, i))
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", errors.NewInvalidRequest(fmt.Sprintf("%s: argument %d must be a non-empty string", method, i))
	}
	return s, nil
}
