// Package photos keeps a property's ordered photo list together with the
// index of its cover photo.
package photos

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned for an index that names no photo.
	ErrIndexOutOfRange = errors.New("photo index out of range")
	// ErrEmptyURL is returned when adding a photo without a URL.
	ErrEmptyURL = errors.New("photo url is required")
	// ErrUnknownOp is returned for an operation kind List does not support.
	ErrUnknownOp = errors.New("unknown photo operation")
)

// List is an ordered photo list with a cover designation.
// After every operation 0 <= Cover() < Len(), or Cover() == 0 when empty.
// The cover follows the photo it designates when photos move.
type List struct {
	photos []string
	cover  int
}

// NewList wraps photos with the given cover index, clamping the index into
// range.
func NewList(photos []string, cover int) *List {
	l := &List{photos: append([]string{}, photos...), cover: cover}
	l.clamp()
	return l
}

// Photos returns a copy of the ordered URLs.
func (l *List) Photos() []string {
	return append([]string{}, l.photos...)
}

// Cover returns the index of the cover photo.
func (l *List) Cover() int {
	return l.cover
}

// Len returns the number of photos.
func (l *List) Len() int {
	return len(l.photos)
}

// Add appends a photo. The first photo added to an empty list is the cover.
func (l *List) Add(url string) error {
	if url == "" {
		return ErrEmptyURL
	}
	l.photos = append(l.photos, url)
	if len(l.photos) == 1 {
		l.cover = 0
	}
	return nil
}

// Remove deletes the photo at index. A cover past the new end is pulled back
// to the last photo; a cover after the removed photo shifts down by one.
func (l *List) Remove(index int) error {
	if err := l.check(index); err != nil {
		return err
	}
	l.photos = append(l.photos[:index], l.photos[index+1:]...)

	switch n := len(l.photos); {
	case l.cover >= n:
		l.cover = max(0, n-1)
	case index < l.cover:
		l.cover--
	}
	return nil
}

// SetCover designates the photo at index as the cover.
func (l *List) SetCover(index int) error {
	if err := l.check(index); err != nil {
		return err
	}
	l.cover = index
	return nil
}

// MoveUp swaps the photo at index with the one before it. Moving the first
// photo up does nothing.
func (l *List) MoveUp(index int) error {
	if err := l.check(index); err != nil {
		return err
	}
	if index == 0 {
		return nil
	}
	l.swap(index, index-1)
	return nil
}

// MoveDown swaps the photo at index with the one after it. Moving the last
// photo down does nothing.
func (l *List) MoveDown(index int) error {
	if err := l.check(index); err != nil {
		return err
	}
	if index == len(l.photos)-1 {
		return nil
	}
	l.swap(index, index+1)
	return nil
}

func (l *List) swap(from, to int) {
	l.photos[from], l.photos[to] = l.photos[to], l.photos[from]
	switch l.cover {
	case from:
		l.cover = to
	case to:
		l.cover = from
	}
}

func (l *List) check(index int) error {
	if index < 0 || index >= len(l.photos) {
		return fmt.Errorf("%w: %d (have %d photos)", ErrIndexOutOfRange, index, len(l.photos))
	}
	return nil
}

func (l *List) clamp() {
	switch {
	case len(l.photos) == 0, l.cover < 0:
		l.cover = 0
	case l.cover >= len(l.photos):
		l.cover = len(l.photos) - 1
	}
}

// OpKind names a List operation.
type OpKind string

const (
	OpAdd      OpKind = "add"
	OpRemove   OpKind = "remove"
	OpSetCover OpKind = "setCover"
	OpMoveUp   OpKind = "moveUp"
	OpMoveDown OpKind = "moveDown"
)

// Op is a single List operation as sent by a client.
type Op struct {
	Kind  OpKind `json:"op" binding:"required,oneof=add remove setCover moveUp moveDown"`
	URL   string `json:"url"`
	Index int    `json:"index" binding:"gte=0"`
}

// Apply runs op against the list.
func (l *List) Apply(op Op) error {
	switch op.Kind {
	case OpAdd:
		return l.Add(op.URL)
	case OpRemove:
		return l.Remove(op.Index)
	case OpSetCover:
		return l.SetCover(op.Index)
	case OpMoveUp:
		return l.MoveUp(op.Index)
	case OpMoveDown:
		return l.MoveDown(op.Index)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
	}
}
