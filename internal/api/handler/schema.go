package handler

import "strconv"

// errorResponse documents the error envelope rendered by the central error
// handler; it exists here for the generated API docs.
type errorResponse struct {
	Error string `json:"error"`
}

// pagedResponse is the standard envelope for paginated list endpoints.
type pagedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func newPagedResponse(data any, total int64, page, limit int) pagedResponse {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return pagedResponse{Data: data, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// queryInt parses an integer query parameter, returning def when absent or
// malformed.
func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
