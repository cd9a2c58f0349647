package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/hivekeep/internal/apiary"
)

// translateConstraint maps SQLite constraint violations onto apiary error
// codes. Other errors are returned unchanged.
func translateConstraint(err error, entity, id string) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return &apiary.Error{Code: apiary.CodeConflict, Entity: entity, ID: id, Message: "already exists", Err: err}
	case sqlite3.ErrConstraintForeignKey:
		return &apiary.Error{Code: apiary.CodeNotFound, Entity: entity, ID: id, Message: "referenced record missing", Err: err}
	default:
		return &apiary.Error{Code: apiary.CodeInvalidInput, Entity: entity, ID: id, Message: "constraint violated", Err: err}
	}
}
