package chamber

import (
	"context"
	"fmt"
	"time"

	"github.com/ridge/chamber/changes"
	"github.com/ridge/chamber/clock"
	"github.com/ridge/chamber/commit"
	"github.com/ridge/chamber/indices"
	"github.com/ridge/chamber/meta"
	"github.com/ridge/chamber/signals"
	"github.com/ridge/chamber/tlog"
	"github.com/ridge/chamber/typeddb"
	"go.uber.org/zap"
)

// Snapshot is a read-only snapshot of the database.
// Safe for concurrent use.
type Snapshot = typeddb.Snapshot

// Kind describes a particular type of record
type Kind = typeddb.Kind

// KindList is a shortcut for declaring a list of kinds to create Config
type KindList = []*Kind

// KindOf creates a Kind from an object example and index definitions
var KindOf = typeddb.KindOf

// Meta is a type for dummy fields bearing tags for the containing structure
type Meta = meta.Meta

// ChangeSet is a read-only view of the difference between two states of
// a record
type ChangeSet = changes.ChangeSet

// ErrRollback is returned by Atomic when the block was marked for rollback
var ErrRollback = typeddb.ErrRollback

// Convenience reexports from indices package.
// See package documentation for indices.
var (
	Index       = indices.Index
	UniqueIndex = indices.UniqueIndex
)

// Audit is an embeddable pair of audit columns
type Audit struct {
	Created time.Time `chamber:"created"`
	Changed time.Time `chamber:"changed"`
}

// DefaultAlias is the connection alias used when Config.Alias is empty
const DefaultAlias = "default"

// Config is configuration of a database
type Config struct {
	// Alias names the connection. Commit scopes are kept per alias, so two
	// databases sharing a Registry must have different aliases.
	Alias string

	// Kinds is a list of record kinds stored in the database. The kind
	// named batch_cursor is reserved for the cursors of batch iterators.
	Kinds KindList

	// Logger is used for the database's own messages instead of the
	// context logger. Can be nil.
	Logger *zap.Logger

	// Registry keeps the commit scopes. Nil creates a private one.
	Registry *commit.Registry

	// Clock supplies audit column values. Nil means the real clock.
	Clock clock.Clock

	// Debug enables warnings about callables registered outside of any
	// commit scope
	Debug bool
}

// DB is an instance of chamber: one connection, its commit scopes and its
// record signals.
//
// A DB has a single writer: atomic blocks and saves must not run
// concurrently. Snapshots are safe to use from any goroutine.
type DB struct {
	tdb      *typeddb.TypedDB
	registry *commit.Registry
	signals  *signals.Set
	logger   *zap.Logger
	clock    clock.Clock
}

// New creates a new database
func New(config Config) *DB {
	if config.Alias == "" {
		config.Alias = DefaultAlias
	}
	kinds := append(KindList{kindBatchCursor}, config.Kinds...)
	seen := map[string]bool{}
	for _, kind := range kinds {
		if seen[kind.DBName] {
			panic(fmt.Sprintf("duplicate kind name: %s", kind.DBName))
		}
		seen[kind.DBName] = true
	}
	db := &DB{
		tdb:      typeddb.New(config.Alias, kinds),
		registry: config.Registry,
		signals:  signals.NewSet(),
		logger:   config.Logger,
		clock:    config.Clock,
	}
	if db.registry == nil {
		db.registry = commit.NewRegistry(config.Debug)
	}
	if db.clock == nil {
		db.clock = clock.Real{}
	}
	return db
}

// Alias returns the connection alias
func (db *DB) Alias() string {
	return db.tdb.Alias()
}

// InAtomicBlock reports whether an atomic block is in progress
func (db *DB) InAtomicBlock() bool {
	return db.tdb.InAtomicBlock()
}

// Registry returns the commit scope registry
func (db *DB) Registry() *commit.Registry {
	return db.registry
}

// Signals returns the record lifecycle signals of the database
func (db *DB) Signals() *signals.Set {
	return db.signals
}

// Snapshot returns a snapshot of the committed state
func (db *DB) Snapshot() Snapshot {
	return db.tdb.Snapshot()
}

// Reader returns the transaction of the atomic block in progress, or
// a snapshot outside of atomic blocks
func (db *DB) Reader() Snapshot {
	return db.tdb.Reader()
}

// Atomic runs fn inside a commit scope and an atomic block.
//
// The block commits when fn returns nil at the outermost level. Callables
// registered with PreCommit run right before that, inside the transaction;
// an error from them aborts it. Callables registered with OnSuccess run
// after the commit; Atomic returns the first error they return, with the
// transaction already committed.
//
// Nested calls are savepoints. An error or a panic in fn drops the writes
// and the callables of the block.
func (db *DB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	alias := db.Alias()
	return db.registry.Do(ctx, alias, func(ctx context.Context) error {
		return db.tdb.Atomic(func(typeddb.Transaction) error {
			if err := fn(ctx); err != nil {
				return err
			}
			if db.tdb.Depth() == 1 && !db.tdb.NeedsRollback() {
				return db.registry.RunPreCommit(ctx, alias)
			}
			return nil
		})
	})
}

// SetRollback marks the innermost atomic block for rollback, so that it
// fails with ErrRollback. Panics outside of atomic blocks.
func (db *DB) SetRollback(rollback bool) {
	db.tdb.SetRollback(rollback)
}

// OnSuccess registers a callable to run after the outermost atomic block
// commits. Outside of atomic blocks it runs right away.
func (db *DB) OnSuccess(ctx context.Context, c commit.Callable) error {
	return db.registry.OnSuccess(ctx, db, c)
}

// PreCommit registers a callable to run inside the outermost atomic block
// right before it commits. Outside of atomic blocks it runs right away.
func (db *DB) PreCommit(ctx context.Context, c commit.Callable) error {
	return db.registry.PreCommit(ctx, db, c)
}

// Logger returns the configured logger, or the one carried by ctx
func (db *DB) Logger(ctx context.Context) *zap.Logger {
	if db.logger != nil {
		return db.logger
	}
	return tlog.Get(ctx)
}

// write runs fn in the current atomic block, or in a block of its own
func (db *DB) write(fn func(txn typeddb.Transaction) error) error {
	return db.tdb.Atomic(fn)
}
