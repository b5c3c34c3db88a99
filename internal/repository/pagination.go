package repository

// Page is the limit/offset window for record listings. Filtering by
// season or event stays in SQL; the window shape does not grow with it.
type Page struct {
	Limit  int
	Offset int
}

// PageResult pairs a page of items with the total match count, so a
// season overview can render pagination without a second query.
type PageResult[T any] struct {
	Items []T
	Total int
}
