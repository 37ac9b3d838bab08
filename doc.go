// Package chamber is a framework for records that know what changed in them
// and for work that must run only when a transaction actually commits.
//
// # Records
//
// A record kind is a Go structure type registered with the database as
// a Kind. A Model binds a Kind to a DB and produces Records. A Record wraps
// the structure value in its Data field and tracks it: every record compares
// its current field values to a baseline taken when it was loaded or last
// saved, and reports the difference as a change set.
//
// A record is "adding" until its first save and "changing" afterwards.
// A record loaded with Only has the fields that were left out marked as
// deferred: such fields hold their stored values but take part in change
// detection only after they are assigned a different value, changed with
// Change or reloaded with Refresh.
//
// Saving a record runs, in order: the PreSave hook of the structure, full
// validation, the model's pre-save dispatchers, the PreSave signal, the
// write, the PostSave hook, optional post-save validation, the model's
// dispatchers and the PostSave signal. Post-save steps see the change set
// computed before the write, since the write resets the baseline. Deleting
// is the same sequence around the removal, without dispatchers.
//
// # Commit scopes
//
// DB.Atomic opens a commit scope and an atomic block together. Callables
// registered with OnSuccess inside are held until the outermost block
// commits, and are dropped if it fails. Callables registered with PreCommit
// run inside the outermost block right before it commits, so their writes
// are part of the same transaction. Nested blocks are savepoints: when a
// nested block fails, its writes and its callables are dropped and the
// enclosing block goes on.
//
// A unique callable runs at most once per transaction no matter how many
// times it is registered: later registrations are joined into the first one,
// which sees the data of all of them.
//
// # Chamber tags
//
// Members of record structures can be labeled with optional chamber tags.
// The value of a chamber tag is a comma-separated list of options:
//
// * identity: the field is the primary key of the record. There must be
// exactly one such field per kind, of a string-based type. An empty identity
// is filled with a random UUID when the record is first saved. This option
// implies const.
//
// * const: the field cannot be changed once the record is saved. Validation
// reports an attempt to change it. This tag can also be used on an anonymous
// field, which makes it apply to all fields in that structure, recursively.
//
// * required: the field is not allowed to have an empty value.
// Note that an empty but non-nil slice or map is not an empty value.
//
// * created, changed: the field is a time.Time maintained on save. A created
// field is set on insert unless already set, a changed field on every save.
//
// * - (hyphen): the field is not tracked, validated or stored separately
// from the rest of the record. This tag can also be applied to an anonymous
// field.
//
// The table name of the kind is set with a name=NAME option on a Meta field:
//
//	type Item struct {
//	    chamber.Meta `chamber:"name=item"`
//	    chamber.Audit
//
//	    ID     string        `chamber:"identity"`
//	    Name   string        `chamber:"required"`
//	    Price  fields.Decimal
//	    Status string
//	}
//
// # Hooks
//
// The structure can implement any of the optional hook interfaces (PreSaver,
// PostSaver, PreDeleter, PostDeleter, Cleaner) on its pointer type. Hooks
// run synchronously as part of the save or delete, and an error returned
// from one aborts it.
package chamber
