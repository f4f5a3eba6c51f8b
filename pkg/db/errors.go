package db

import "errors"

var (
	ErrWordbookNotFound = errors.New("wordbook not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrInvalidWordbook  = errors.New("wordbook name is required")
	ErrInvalidCard      = errors.New("card headword is required")
	ErrStoreLocked      = errors.New("database is in use by another process")
)
