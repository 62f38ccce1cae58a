package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
	"github.com/cargoflow/cargoflow/pkg/eventbus"
)

type CustomerEventsHandler struct {
	logger *logrus.Logger
}

func RegisterCustomerEventHandlers(bus eventbus.EventBus, logger *logrus.Logger) {
	handler := &CustomerEventsHandler{logger: logger}
	bus.Subscribe(handler.onCustomerCreated)
}

func (h *CustomerEventsHandler) onCustomerCreated(event customer.CreatedEvent) {
	h.logger.WithFields(logrus.Fields{
		"customer_id":   event.Customer.ID(),
		"shipping_mark": event.Customer.ShippingMark(),
		"source_row":    event.SourceRow,
	}).Info("customer created by import")
}
