package dto

// ErrorResponse — стандартное тело ответа об ошибке.
// Details заполняются для ошибок с дополнительным контекстом, например
// остатком долга при отклонённом платеже.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse — стандартное тело ответа об успехе.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
