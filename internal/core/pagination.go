package core

// Page is the resolved position of a paginated query.
type Page struct {
	Number int // clamped page, 1-based
	Size   int
	Pages  int // never less than 1
	Offset int
}

// Paginate clamps page into [1, pages] where pages = max(ceil(total/size), 1).
// size must be positive.
func Paginate(total int64, page, size int) Page {
	if page < 1 {
		page = 1
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	return Page{
		Number: page,
		Size:   size,
		Pages:  pages,
		Offset: (page - 1) * size,
	}
}
