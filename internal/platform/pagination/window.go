package pagination

// TotalPages is ceil(total/limit). Zero items yields zero pages.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Window returns the [start, end) slice bounds of page within total items.
// A page past the end yields an empty window.
func Window(page, limit, total int) (start, end int) {
	if page < 1 || limit < 1 || total <= 0 {
		return 0, 0
	}
	start = (page - 1) * limit
	if start >= total {
		return total, total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}
