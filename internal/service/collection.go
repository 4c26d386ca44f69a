package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/store"
	"github.com/mybookshelf/catalog/internal/validation"
)

// runner bounds every catalog operation by the operation timeout and
// records its outcome.
type runner struct {
	timeout time.Duration
	metrics *metrics.Store
	logger  *slog.Logger
}

func (r *runner) run(ctx context.Context, kind domain.Kind, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && domainerrors.CodeOf(err) != domainerrors.CodeTimeout {
		err = domainerrors.Timeout(err, string(kind)+" "+op)
	}

	code := "OK"
	if err != nil {
		code = string(domainerrors.CodeOf(err))
		if code == "" {
			code = string(domainerrors.CodeInternal)
		}
	}
	r.metrics.Operations.WithLabelValues(string(kind), op, code).Inc()
	r.metrics.Duration.WithLabelValues(string(kind), op).Observe(time.Since(start).Seconds())

	if err != nil && code != string(domainerrors.CodeNotFound) {
		r.logger.Debug("catalog operation failed", "kind", kind, "op", op, "code", code, "error", err)
	}
	return err
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{"actor": "is required"})
	}
	return nil
}

// Collection is the versioned CRUD surface for one entity kind.
type Collection[T any, PT domain.Record[T]] struct {
	kind      domain.Kind
	repo      store.Repository[T]
	validator *validation.Validator
	runner    *runner
}

func newCollection[T any, PT domain.Record[T]](kind domain.Kind, repo store.Repository[T], v *validation.Validator, r *runner) *Collection[T, PT] {
	return &Collection[T, PT]{kind: kind, repo: repo, validator: v, runner: r}
}

// Kind returns the entity kind served by c.
func (c *Collection[T, PT]) Kind() domain.Kind {
	return c.kind
}

// Create validates v and inserts it with version 1, stamped by actor.
// On success v carries the assigned id, version and timestamps.
func (c *Collection[T, PT]) Create(ctx context.Context, v *T, actor string) (string, int64, error) {
	if v == nil {
		return "", 0, domainerrors.Validationf("%s payload is required", c.kind)
	}
	if err := requireActor(actor); err != nil {
		return "", 0, err
	}
	if err := c.validator.Validate(v); err != nil {
		return "", 0, err
	}

	err := c.runner.run(ctx, c.kind, "create", func(ctx context.Context) error {
		return c.repo.Create(ctx, v, actor)
	})
	if err != nil {
		return "", 0, err
	}

	meta := PT(v).Meta()
	c.runner.logger.Info("entity created", "kind", c.kind, "id", meta.ID, "actor", actor)
	return meta.ID, meta.Version, nil
}

// Get returns the entity with the given id.
func (c *Collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	var v *T
	err := c.runner.run(ctx, c.kind, "get", func(ctx context.Context) error {
		var err error
		v, err = c.repo.Get(ctx, id)
		return err
	})
	return v, err
}

// Update applies patch when the stored version equals expected and returns
// the new version. A stale expected version fails with CONFLICT.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, expected int64, patch domain.Patch[T], actor string) (int64, error) {
	if patch == nil {
		return 0, domainerrors.Validationf("%s patch is required", c.kind)
	}
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	if err := c.validator.Validate(patch); err != nil {
		return 0, err
	}

	var version int64
	err := c.runner.run(ctx, c.kind, "update", func(ctx context.Context) error {
		var err error
		version, err = c.repo.Update(ctx, id, expected, patch)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.runner.logger.Info("entity updated", "kind", c.kind, "id", id, "version", version, "actor", actor)
	return version, nil
}

// Delete removes the entity and its dependents when the stored version
// equals expected.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string, expected int64, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	err := c.runner.run(ctx, c.kind, "delete", func(ctx context.Context) error {
		return c.repo.Delete(ctx, id, expected)
	})
	if err != nil {
		return err
	}

	c.runner.logger.Info("entity deleted", "kind", c.kind, "id", id, "version", expected, "actor", actor)
	return nil
}

// List returns one page of entities.
func (c *Collection[T, PT]) List(ctx context.Context, params store.ListParams) (*store.Page[T], error) {
	var page *store.Page[T]
	err := c.runner.run(ctx, c.kind, "list", func(ctx context.Context) error {
		var err error
		page, err = c.repo.List(ctx, params)
		return err
	})
	return page, err
}
