package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
	"github.com/cargoflow/cargoflow/pkg/eventbus"
)

func TestCustomerCreatedEventIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	bus := eventbus.NewEventPublisher(logger)
	RegisterCustomerEventHandlers(bus, logger)
	require.Equal(t, 1, bus.SubscribersCount())

	created := customer.New(uuid.New(), "PM JOHN", "John", "")
	bus.Publish(customer.CreatedEvent{Customer: created, SourceRow: 7})

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "customer created by import", entry.Message)
	assert.Equal(t, "PM JOHN", entry.Data["shipping_mark"])
	assert.Equal(t, 7, entry.Data["source_row"])
}
