package app

import (
	"fmt"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("Internal server error: %s", e.Message)
}
