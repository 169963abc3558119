package scope

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// Paginate slices already filtered rows. Sizes outside 1..MaxPageSize fall
// back to the default or the maximum; page is clamped to 1..Pages.
func Paginate[T any](items []T, page, size int) Page[T] {
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}

	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := min(start+size, total)
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)

	return Page[T]{Items: out, Page: page, PageSize: size, Total: total, Pages: pages}
}
