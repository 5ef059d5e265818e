package types

// PaginationResponse represents standardized pagination metadata
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse represents a paginated response with items
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewPaginationResponse creates pagination metadata for a page served from filter f
func NewPaginationResponse(total int, f BaseFilter) PaginationResponse {
	return PaginationResponse{
		Total:  total,
		Limit:  f.GetLimit(),
		Offset: f.GetOffset(),
	}
}

// NewListResponse creates a new list response with pagination
func NewListResponse[T any](items []T, total int, f BaseFilter) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:      items,
		Pagination: NewPaginationResponse(total, f),
	}
}
