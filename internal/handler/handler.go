package handler

import "regula-notificador/internal/service"

type Handlers struct {
	Notification *NotificationHandler
	Message      *MessageHandler
	Instance     *InstanceHandler
	Queue        *QueueHandler
	Milestone    *MilestoneHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Notification: NewNotificationHandler(services.Notification),
		Message:      NewMessageHandler(services.Messaging),
		Instance:     NewInstanceHandler(services.Messaging),
		Queue:        NewQueueHandler(services.Queue),
		Milestone:    NewMilestoneHandler(services.Milestone),
	}
}
