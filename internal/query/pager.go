package query

import "github.com/feildrixliemdra/library-admin/internal/constants"

// PageItem is one entry of a pager: a page number or an ellipsis.
type PageItem struct {
	Page     int
	Ellipsis bool
}

// PageItems lists the pager entries for current out of total pages. Up to seven
// pages are shown in full; beyond that the first and last page and the
// neighbours of current are shown with ellipses for the gaps.
func PageItems(current, total int) []PageItem {
	items := make([]PageItem, 0, constants.PagerWindow+2)

	if total <= constants.PagerWindow {
		for i := 1; i <= total; i++ {
			items = append(items, PageItem{Page: i})
		}

		return items
	}

	left := max(2, current-1)
	right := min(total-1, current+1)

	items = append(items, PageItem{Page: 1})

	if left > 2 {
		items = append(items, PageItem{Ellipsis: true})
	}

	for i := left; i <= right; i++ {
		items = append(items, PageItem{Page: i})
	}

	if right < total-1 {
		items = append(items, PageItem{Ellipsis: true})
	}

	return append(items, PageItem{Page: total})
}
