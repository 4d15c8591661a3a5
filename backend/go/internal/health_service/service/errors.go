package service

import "fmt"

// ValidationError 表示调用方输入不合法，API 层映射为 400。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
