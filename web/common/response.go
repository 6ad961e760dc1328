package common

type SuccessResponse struct {
	Data interface{} `json:"data"`
}

func NewSuccessResponse(data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Data: data,
	}
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
	}
}

// ListResponse wraps a collection with its length so dashboard clients do
// not have to count.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

func NewListResponse(data interface{}, count int) *ListResponse {
	return &ListResponse{
		Data:  data,
		Count: count,
	}
}
