package data

import "errors"

// ErrQueueItemIDRequired is returned when a queue operation is called without an id.
var ErrQueueItemIDRequired = errors.New("queue item id is required")
