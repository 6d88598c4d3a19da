package orderlist

import "github.com/kingrea/orderdesk/internal/order"

// DefaultPerPage is used when a page size is not configured.
const DefaultPerPage = 10

// Pagination is the caller-owned page state. The engine never clamps it
// implicitly; callers use WithTotal or Clamp after the filtered length changes
// and Reset after any filter change.
type Pagination struct {
	Page       int
	PerPage    int
	TotalItems int
}

// NewPagination starts on page 1.
func NewPagination(perPage int) Pagination {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return Pagination{Page: 1, PerPage: perPage}
}

// TotalPages is ceil(n/size) with size below 1 treated as 1.
func TotalPages(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// TotalPages of the current state.
func (p Pagination) TotalPages() int {
	return TotalPages(p.TotalItems, p.PerPage)
}

// Clamp moves Page into [1, max(1, TotalPages)].
func (p Pagination) Clamp() Pagination {
	last := p.TotalPages()
	if last < 1 {
		last = 1
	}
	if p.Page > last {
		p.Page = last
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Reset returns to the first page.
func (p Pagination) Reset() Pagination {
	p.Page = 1
	return p
}

// WithTotal records a new filtered length and clamps.
func (p Pagination) WithTotal(n int) Pagination {
	p.TotalItems = n
	return p.Clamp()
}

// WithPerPage changes the page size and clamps.
func (p Pagination) WithPerPage(size int) Pagination {
	if size < 1 {
		size = 1
	}
	p.PerPage = size
	return p.Clamp()
}

// Next advances one page, staying on the last page.
func (p Pagination) Next() Pagination {
	p.Page++
	return p.Clamp()
}

// Prev goes back one page, staying on the first page.
func (p Pagination) Prev() Pagination {
	p.Page--
	return p.Clamp()
}

// Paginate returns seq[(page-1)*size : page*size] clipped to seq. The result
// shares seq's backing array but cannot grow into it.
func Paginate(seq []order.Order, p Pagination) []order.Order {
	size := p.PerPage
	if size < 1 {
		size = 1
	}
	start := (p.Page - 1) * size
	end := start + size
	if start < 0 {
		start = 0
	}
	if start > len(seq) {
		start = len(seq)
	}
	if end > len(seq) {
		end = len(seq)
	}
	if end < start {
		end = start
	}
	return seq[start:end:end]
}
