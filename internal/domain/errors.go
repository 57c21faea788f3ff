package domain

import "errors"

var (
	// ErrOrderNotFound возвращается, если заказ не найден в локальной копии.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoSyncHistory сигнализирует, что в журнале нет ни одного
	// успешного прохода синхронизации.
	ErrNoSyncHistory = errors.New("no finished sync attempt")
)
