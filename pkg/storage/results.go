package storage

// CreateResponse reports the outcome of a get-or-create
type CreateResponse[T any] struct {
	Record  T      `json:"record"`
	Created bool   `json:"created"`
	Reason  string `json:"reason,omitempty"`
}

// Created marks record as newly inserted
func Created[T any](record T) CreateResponse[T] {
	return CreateResponse[T]{Record: record, Created: true}
}

// NotCreated returns an existing or empty record with the reason nothing was inserted
func NotCreated[T any](record T, reason string) CreateResponse[T] {
	return CreateResponse[T]{Record: record, Reason: reason}
}

// Page is one window of a paginated listing
type Page[T any] struct {
	Count   int64 `json:"count"`
	Skip    int   `json:"skip"`
	Size    int   `json:"size"`
	Records []T   `json:"records"`
}
