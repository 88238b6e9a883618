package worker

import (
	"github.com/vnoc/incident-tracker/internal/events"
	"github.com/vnoc/incident-tracker/internal/service"
)

// StartNotificationWorker subscribes the notification handlers and, when a
// relay is given, the Redis fan-out to the dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, relay *events.RedisRelay) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if relay != nil && dispatcher != nil {
		relay.Register(dispatcher)
	}
}
