package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrVersionConflict is returned when a versioned write finds the row at a
	// different version than expected.
	ErrVersionConflict = errors.New("version conflict")
	// ErrAlreadyReviewed is returned when a change request is no longer pending.
	ErrAlreadyReviewed = errors.New("change request already reviewed")
	// ErrTokenUnavailable is returned when a link was used or expired between
	// validation and submission.
	ErrTokenUnavailable = errors.New("token unavailable")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pageBounds clamps a 1-based page request and returns its limit and offset.
func pageBounds(page, size int) (int, int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size, page, size
}
