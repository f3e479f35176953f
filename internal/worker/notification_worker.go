package worker

import (
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartNotificationWorker registers event forwarding handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
