package serverutils

type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) *Response[T] {
	return &Response[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) *Response[any] {
	return &Response[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ErrorResponseWithData carries field level details, e.g. validation errors.
func ErrorResponseWithData[T any](code int, message string, data T) *Response[T] {
	return &Response[T]{
		Success: false,
		Code:    code,
		Message: message,
		Data:    data,
	}
}
