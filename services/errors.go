package services

import "errors"

// Общие ошибки сервисного слоя, маппятся в HTTP-статусы в handlers.
var (
	// Ошибки валидации входных данных
	ErrDisplayNameRequired  = errors.New("display name is required")
	ErrInvalidSource        = errors.New("source must be either \"queue\" or \"ready\"")
	ErrConfirmationRequired = errors.New("clearing the schedule must be confirmed")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid admin password")
	ErrForbiddenOperation     = errors.New("operation requires admin mode")

	// Ошибки хранилища: состояние доски не изменено
	ErrPersistenceFailed = errors.New("failed to persist board state")
)
