package events

import (
	platformevents "poolroute_backend/platform/events"
	"poolroute_backend/platform/logger"
)

// InMemoryBus dispatches scheduling events inside one process.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
