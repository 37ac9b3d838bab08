package typeddb

// Atomic runs fn inside an atomic block.
//
// The outermost block opens a write transaction and commits it when fn
// returns nil. A nested block works as a savepoint: when fn fails, only the
// writes made inside it are undone and the enclosing block goes on.
//
// A panic in fn rolls the block back and propagates. A block marked with
// SetRollback is rolled back as well, and Atomic returns ErrRollback.
func (tdb *TypedDB) Atomic(fn func(txn Transaction) error) error {
	if tdb.block == nil {
		return tdb.outermost(fn)
	}
	return tdb.savepoint(fn)
}

func (tdb *TypedDB) outermost(fn func(txn Transaction) error) error {
	txn, ctrl := tdb.Transaction()
	b := &block{txn: txn.(*transaction), ctrl: ctrl, depth: 1}
	tdb.block = b
	defer func() {
		tdb.block = nil
		ctrl.Cancel() // no-op after Commit
	}()

	if err := fn(txn); err != nil {
		return err
	}
	if b.rollback {
		return ErrRollback
	}
	ctrl.Commit()
	return nil
}

func (tdb *TypedDB) savepoint(fn func(txn Transaction) error) (err error) {
	b := tdb.block
	mark := len(b.txn.undo)
	outerRollback := b.rollback
	b.rollback = false
	b.depth++

	done := false
	defer func() {
		b.depth--
		if !done || err != nil {
			b.txn.rollbackTo(mark)
		}
		b.rollback = outerRollback
	}()

	err = fn(b.txn)
	if err == nil && b.rollback {
		err = ErrRollback
	}
	done = true
	return err
}

// InAtomicBlock reports whether an atomic block is in progress
func (tdb *TypedDB) InAtomicBlock() bool {
	return tdb.block != nil
}

// Depth returns the nesting depth of atomic blocks, 0 outside of any
func (tdb *TypedDB) Depth() int {
	if tdb.block == nil {
		return 0
	}
	return tdb.block.depth
}

// SetRollback marks the innermost atomic block for rollback (or unmarks it)
func (tdb *TypedDB) SetRollback(rollback bool) {
	if tdb.block == nil {
		panic("SetRollback called outside of an atomic block")
	}
	tdb.block.rollback = rollback
}

// NeedsRollback reports whether the innermost atomic block is marked for
// rollback
func (tdb *TypedDB) NeedsRollback() bool {
	return tdb.block != nil && tdb.block.rollback
}

// Current returns the transaction of the atomic block in progress, or nil
func (tdb *TypedDB) Current() Transaction {
	if tdb.block == nil {
		return nil
	}
	return tdb.block.txn
}

// Reader returns the transaction of the atomic block in progress, or a fresh
// snapshot of the committed state outside of atomic blocks
func (tdb *TypedDB) Reader() Snapshot {
	if tdb.block == nil {
		return tdb.Snapshot()
	}
	return tdb.block.txn
}
