package dto

type Pagination struct {
	TotalCount  uint64 `json:"total_count"`
	Limit       uint64 `json:"limit"`
	Offset      uint64 `json:"offset"`
	CurrentPage uint64 `json:"current_page,omitempty"`
	TotalPages  uint64 `json:"total_pages,omitempty"`
}

func NewPagination(total, limit, offset, page uint64) *Pagination {
	p := &Pagination{TotalCount: total, Limit: limit, Offset: offset, CurrentPage: page}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}

// PaginatedList - тело ответа для списков с withPagination=true.
type PaginatedList[T any] struct {
	List       []T         `json:"list"`
	Pagination *Pagination `json:"pagination"`
}
