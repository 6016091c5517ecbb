package postgres

import (
	"time"

	"freightdesk/internal/core/id"
)

func now() time.Time {
	return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
}

func newID() id.ID {
	return id.New()
}
