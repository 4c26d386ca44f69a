package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/id"
	"github.com/mybookshelf/catalog/internal/store"
)

// Entity provides versioned CRUD over one table. Every write runs in its own
// immediate transaction; updates and deletes re-read the version inside it
// and guard the statement with WHERE id = ? AND version = ?.
type Entity[T any, PT domain.Record[T]] struct {
	store *Store
	kind  domain.Kind
	table string

	columns []string          // Writable kind-specific columns
	derived []string          // Read-only select expressions
	values  func(PT) []any    // Args for columns, in order
	fields  func(PT) []any    // Scan targets for columns then derived
	filters map[string]string // Filter key to a WHERE fragment with one placeholder
	title   string            // Column behind store.SortTitle
	rating  string            // Expression behind store.SortRating

	// Optional conversion of filter values before binding.
	convert map[string]func(string) (any, error)

	// Optional hooks. Those taking a *sql.Tx run inside the write transaction.
	beforeInsert func(ctx context.Context, tx *sql.Tx, v PT) error
	afterInsert  func(ctx context.Context, tx *sql.Tx, v PT) error
	load         func(ctx context.Context, q querier, v PT) error
	dependents   func(ctx context.Context, q querier, id string, at time.Time) ([]store.Change, error)
	beforeDelete func(ctx context.Context, tx *sql.Tx, id string, at time.Time) ([]store.Change, error)

	selectSQL string
	insertSQL string
	updateSQL string
}

var _ store.Repository[domain.Ebook] = (*Entity[domain.Ebook, *domain.Ebook])(nil)

// build precomputes the statements. Called once by each constructor.
func (e *Entity[T, PT]) build() *Entity[T, PT] {
	sel := []string{"t.id", "t.version", "t.created", "t.modified", "t.created_by"}
	for _, c := range e.columns {
		sel = append(sel, "t."+c)
	}
	sel = append(sel, e.derived...)
	e.selectSQL = "SELECT " + strings.Join(sel, ", ") + " FROM " + e.table + " t"

	ins := append([]string{"id", "version", "created", "modified", "created_by"}, e.columns...)
	e.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.table, strings.Join(ins, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(ins)), ", "))

	set := make([]string, 0, len(e.columns)+2)
	for _, c := range e.columns {
		set = append(set, c+" = ?")
	}
	set = append(set, "modified = ?", "version = version + 1")
	e.updateSQL = fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND version = ?", e.table, strings.Join(set, ", "))

	return e
}

// Create inserts v with a fresh id and version 1, then reloads it so
// derived fields are populated.
func (e *Entity[T, PT]) Create(ctx context.Context, v *T, actor string) error {
	key, err := id.Generate(string(e.kind))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "generate id")
	}
	at := now()
	PT(v).Meta().Init(key, actor, at)

	var created PT
	err = e.store.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.check(v); err != nil {
			return err
		}
		if e.beforeInsert != nil {
			if err := e.beforeInsert(ctx, tx, v); err != nil {
				return err
			}
		}
		if err := e.insert(ctx, tx, v); err != nil {
			return err
		}
		if e.afterInsert != nil {
			if err := e.afterInsert(ctx, tx, v); err != nil {
				return err
			}
		}
		created, err = e.get(ctx, tx, key)
		return err
	})
	if err != nil {
		*PT(v).Meta() = domain.Entity{}
		return err
	}

	*v = *created
	e.store.notify([]store.Change{{Kind: e.kind, ID: key, Version: 1, Op: store.OpUpsert, At: at}})
	return nil
}

// insert writes v as is. Callers own the transaction.
func (e *Entity[T, PT]) insert(ctx context.Context, tx *sql.Tx, v PT) error {
	meta := v.Meta()
	args := append([]any{meta.ID, meta.Version, formatTime(meta.Created), formatTime(meta.Modified), nullString(meta.CreatedBy)}, e.values(v)...)
	if _, err := tx.ExecContext(ctx, e.insertSQL, args...); err != nil {
		return classify(ctx, err, "create "+string(e.kind))
	}
	return nil
}

// Get returns the entity or NOT_FOUND.
func (e *Entity[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	v, err := e.get(ctx, e.store.db, id)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Entity[T, PT]) get(ctx context.Context, q querier, id string) (PT, error) {
	v, err := e.scan(q.QueryRowContext(ctx, e.selectSQL+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(e.kind, id)
	}
	if err != nil {
		return nil, classify(ctx, err, "get "+string(e.kind))
	}
	if e.load != nil {
		if err := e.load(ctx, q, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (e *Entity[T, PT]) scan(row scanner) (PT, error) {
	v := PT(new(T))
	meta := v.Meta()

	var created, modified string
	var createdBy sql.NullString
	dest := append([]any{&meta.ID, &meta.Version, &created, &modified, &createdBy}, e.fields(v)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if meta.Created, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created: %w", err)
	}
	if meta.Modified, err = parseTime(modified); err != nil {
		return nil, fmt.Errorf("parse modified: %w", err)
	}
	meta.CreatedBy = createdBy.String
	return v, nil
}

// Update applies patch when the stored version equals expected.
func (e *Entity[T, PT]) Update(ctx context.Context, id string, expected int64, patch domain.Patch[T]) (int64, error) {
	var changes []store.Change
	err := e.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		changes, err = e.update(ctx, tx, id, expected, patch)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.store.notify(changes)
	return expected + 1, nil
}

// update is Update inside a caller-owned transaction.
func (e *Entity[T, PT]) update(ctx context.Context, tx *sql.Tx, id string, expected int64, patch domain.Patch[T]) ([]store.Change, error) {
	v, err := e.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current := v.Meta().Version; current != expected {
		return nil, conflict(e.kind, id, expected, current)
	}

	patch.Apply(v)
	if err := e.check(v); err != nil {
		return nil, err
	}

	at := now()
	args := append(e.values(v), formatTime(at), id, expected)
	res, err := tx.ExecContext(ctx, e.updateSQL, args...)
	if err != nil {
		return nil, classify(ctx, err, "update "+string(e.kind))
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, conflict(e.kind, id, expected, -1)
	}

	changes := []store.Change{{Kind: e.kind, ID: id, Version: expected + 1, Op: store.OpUpsert, At: at}}
	if e.dependents != nil {
		deps, err := e.dependents(ctx, tx, id, at)
		if err != nil {
			return nil, err
		}
		changes = append(changes, deps...)
	}
	return changes, nil
}

// Delete removes the row when the stored version equals expected. Rows
// owned through ON DELETE CASCADE go with it in the same transaction.
func (e *Entity[T, PT]) Delete(ctx context.Context, id string, expected int64) error {
	var changes []store.Change
	err := e.store.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.checkVersion(ctx, tx, id, expected); err != nil {
			return err
		}

		at := now()
		var deps []store.Change
		var err error
		switch {
		case e.beforeDelete != nil:
			deps, err = e.beforeDelete(ctx, tx, id, at)
		case e.dependents != nil:
			deps, err = e.dependents(ctx, tx, id, at)
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM "+e.table+" WHERE id = ? AND version = ?", id, expected)
		if err != nil {
			return classifyDelete(ctx, err, "delete "+string(e.kind))
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return conflict(e.kind, id, expected, -1)
		}

		changes = append([]store.Change{{Kind: e.kind, ID: id, Version: expected, Op: store.OpDelete, At: at}}, deps...)
		return nil
	})
	if err != nil {
		return err
	}
	e.store.notify(changes)
	return nil
}

// checkVersion reads the stored version inside tx.
func (e *Entity[T, PT]) checkVersion(ctx context.Context, tx *sql.Tx, id string, expected int64) error {
	var current int64
	err := tx.QueryRowContext(ctx, "SELECT version FROM "+e.table+" WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(e.kind, id)
	}
	if err != nil {
		return classify(ctx, err, "read "+string(e.kind)+" version")
	}
	if current != expected {
		return conflict(e.kind, id, expected, current)
	}
	return nil
}

// bump advances the version of the row inside tx after checkVersion.
func (e *Entity[T, PT]) bump(ctx context.Context, tx *sql.Tx, id string, expected int64, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE "+e.table+" SET version = version + 1, modified = ? WHERE id = ? AND version = ?",
		formatTime(at), id, expected)
	if err != nil {
		return classify(ctx, err, "bump "+string(e.kind)+" version")
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return conflict(e.kind, id, expected, -1)
	}
	return nil
}

func (e *Entity[T, PT]) check(v PT) error {
	if c, ok := any(v).(domain.Checker); ok {
		return c.Check()
	}
	return nil
}

// List returns one page of rows matching params.
func (e *Entity[T, PT]) List(ctx context.Context, params store.ListParams) (*store.Page[T], error) {
	params.Normalize()

	where, args, err := e.where(params)
	if err != nil {
		return nil, err
	}
	order, err := e.orderBy(params.Sort)
	if err != nil {
		return nil, err
	}

	var total int
	if err := e.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+e.table+" t"+where, args...).Scan(&total); err != nil {
		return nil, classify(ctx, err, "count "+string(e.kind))
	}

	rows, err := e.store.db.QueryContext(ctx, e.selectSQL+where+order+" LIMIT ? OFFSET ?",
		append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, classify(ctx, err, "list "+string(e.kind))
	}

	items := make([]PT, 0)
	for rows.Next() {
		v, err := e.scan(rows)
		if err != nil {
			rows.Close()
			return nil, classify(ctx, err, "scan "+string(e.kind))
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, classify(ctx, err, "list "+string(e.kind))
	}
	rows.Close()

	page := &store.Page[T]{Items: make([]*T, 0, len(items)), Total: total, Offset: params.Offset, Limit: params.Limit}
	for _, v := range items {
		if e.load != nil {
			if err := e.load(ctx, e.store.db, v); err != nil {
				return nil, err
			}
		}
		page.Items = append(page.Items, v)
	}
	return page, nil
}

func (e *Entity[T, PT]) where(params store.ListParams) (string, []any, error) {
	keys := params.FilterKeys()
	if len(keys) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		frag, ok := e.filters[k]
		if !ok {
			return "", nil, domainerrors.Validationf("cannot filter %s by %q", e.kind, k)
		}
		var arg any = params.Filter[k]
		if conv, ok := e.convert[k]; ok {
			v, err := conv(params.Filter[k])
			if err != nil {
				return "", nil, domainerrors.Validationf("invalid %s filter %s: %q", e.kind, k, params.Filter[k])
			}
			arg = v
		}
		clauses = append(clauses, frag)
		args = append(args, arg)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (e *Entity[T, PT]) orderBy(key store.SortKey) (string, error) {
	switch key {
	case store.SortModified:
		return " ORDER BY t.modified DESC, t.id", nil
	case store.SortTitle:
		if e.title != "" {
			return " ORDER BY t." + e.title + " COLLATE NOCASE ASC, t.id", nil
		}
	case store.SortRating:
		if e.rating != "" {
			return fmt.Sprintf(" ORDER BY %[1]s IS NULL, %[1]s DESC, t.id", e.rating), nil
		}
	}
	return "", domainerrors.Validationf("cannot sort %s by %q", e.kind, key)
}

// ebookChanges reports every ebook matched by where as needing a reindex.
func ebookChanges(ctx context.Context, q querier, at time.Time, where string, args ...any) ([]store.Change, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, version FROM ebooks WHERE "+where, args...)
	if err != nil {
		return nil, classify(ctx, err, "find affected ebooks")
	}
	defer rows.Close()

	var changes []store.Change
	for rows.Next() {
		c := store.Change{Kind: domain.KindEbook, Op: store.OpUpsert, At: at}
		if err := rows.Scan(&c.ID, &c.Version); err != nil {
			return nil, classify(ctx, err, "scan affected ebook")
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err, "find affected ebooks")
	}
	return changes, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
