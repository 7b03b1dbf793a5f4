package listing

// Stats describes the page a view shows. Showing is the number of items
// actually returned, PageSize the number requested per page.
type Stats struct {
	Total      int
	Showing    int
	Page       int
	PageSize   int
	TotalPages int
	Start      int
	End        int
	HasNext    bool
	HasPrev    bool
}

// GetStats computes the pagination stats for one page of a result set of
// size total. Start and End are 1-based item positions.
func GetStats(total, pageSize, page int) Stats {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := max(1, (total+pageSize-1)/pageSize)
	start := (page-1)*pageSize + 1
	end := min(page*pageSize, total)
	return Stats{
		Total:      total,
		Showing:    max(0, end-start+1),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Start:      start,
		End:        end,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Gap marks elided pages in a page window.
const Gap = 0

// PageWindow returns the page numbers to render for a pager with at most
// maxVisible numbered slots. The first and last page are always present and
// Gap stands in for each elided run. maxVisible below 1 defaults to 7.
func PageWindow(page, totalPages, maxVisible int) []int {
	if maxVisible < 1 {
		maxVisible = 7
	}
	totalPages = max(1, totalPages)
	if totalPages <= maxVisible {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	half := maxVisible / 2
	startPage := max(2, page-half)
	endPage := min(totalPages-1, page+half)
	if page <= half+1 {
		endPage = min(totalPages-1, maxVisible-1)
	}
	if page >= totalPages-half {
		startPage = max(2, totalPages-maxVisible+2)
	}

	pages := []int{1}
	if startPage > 2 {
		pages = append(pages, Gap)
	}
	for i := startPage; i <= endPage; i++ {
		pages = append(pages, i)
	}
	if endPage < totalPages-1 {
		pages = append(pages, Gap)
	}
	return append(pages, totalPages)
}
