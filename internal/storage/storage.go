package storage

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateKey    = errors.New("record already exists")
	ErrVersionConflict = errors.New("record version mismatch")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 200
)

// Page is a 1-based page request.
type Page struct {
	Num  int `json:"page_num"`
	Size int `json:"page_size"`
}

func NewPage(num, size int) Page {
	if num < 1 {
		num = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Num: num, Size: size}
}

func (p Page) Offset() int {
	return (p.Num - 1) * p.Size
}

type PageResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	PageNum  int   `json:"page_num"`
	PageSize int   `json:"page_size"`
}
