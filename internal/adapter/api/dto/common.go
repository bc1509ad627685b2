package dto

// ErrorResponse representa a estrutura de resposta para erros
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse cria uma nova resposta de erro
func NewErrorResponse(code int, message, details string) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ClampLimit aplica o padrão e o teto a um limite vindo da query string
func ClampLimit(limit, def, max int) int {
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
