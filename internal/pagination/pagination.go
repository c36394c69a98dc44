// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package pagination splits a counted result set into fixed-size pages.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

// Paginator knows the total item count and page size.
type Paginator struct {
	Total   int
	PerPage int
}

// Page describes one resolved page.
type Page struct {
	Number   int
	NumPages int
	Total    int
	Offset   int
	Limit    int
}

// New creates a paginator. perPage values below 1 are treated as 1.
func New(total, perPage int) *Paginator {
	if perPage < 1 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	return &Paginator{Total: total, PerPage: perPage}
}

// NumPages returns the number of pages. An empty result still has one page.
func (p *Paginator) NumPages() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Page resolves a raw page parameter. Missing or non-numeric values give the
// first page; numbers out of range, including ones too large to parse, give
// the last page.
func (p *Paginator) Page(raw string) Page {
	last := p.NumPages()

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case errors.Is(err, strconv.ErrRange):
		number = last
	case err != nil:
		number = 1
	case number < 1 || number > last:
		number = last
	}

	return Page{
		Number:   number,
		NumPages: last,
		Total:    p.Total,
		Offset:   (number - 1) * p.PerPage,
		Limit:    p.PerPage,
	}
}

func (pg Page) HasPrevious() bool { return pg.Number > 1 }

func (pg Page) HasNext() bool { return pg.Number < pg.NumPages }

func (pg Page) HasOtherPages() bool { return pg.HasPrevious() || pg.HasNext() }

func (pg Page) PreviousNumber() int { return pg.Number - 1 }

func (pg Page) NextNumber() int { return pg.Number + 1 }
