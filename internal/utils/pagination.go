package utils

// PaginationMetadata holds pagination metadata for list responses
type PaginationMetadata struct {
	Total      int  `json:"total"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"hasMore"`
	TotalPages int  `json:"totalPages"`
}

// CalculatePaginationMetadata calculates pagination metadata
func CalculatePaginationMetadata(total, limit, offset int) *PaginationMetadata {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &PaginationMetadata{
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    (offset + limit) < total,
		TotalPages: totalPages,
	}
}
