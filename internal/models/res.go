package models

type ApiResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Page       int64       `json:"page,omitempty"`
	Limit      int64       `json:"limit,omitempty"`
	Total      int64       `json:"total,omitempty"`
	TotalPages int64       `json:"totalPages,omitempty"`
	Count      int         `json:"count,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

func PaginatedResponse(data interface{}, page PageSpec, total int64, count int) ApiResponse {
	return ApiResponse{
		Success:    true,
		Data:       data,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
		Count:      count,
	}
}
