package service

import (
	"courier-track/internal/general/logger"
	"courier-track/internal/general/rabbitmq"
	"courier-track/internal/general/realtime"
	"courier-track/internal/ports"
)

// trackingService holds all dependencies required by the Tracking service.
type trackingService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	deliveries  ports.DeliveryRepository
	driverState ports.DriverStateRepository
	audit       ports.AuditRepository
	registry    *realtime.Registry
	rooms       *realtime.RoomRouter
	pub         ports.MessagePublisher
	rabbitmq    *rabbitmq.Client
}

// NewTrackingService constructs the service with required dependencies.
func NewTrackingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	deliveries ports.DeliveryRepository,
	driverState ports.DriverStateRepository,
	audit ports.AuditRepository,
	registry *realtime.Registry,
	rooms *realtime.RoomRouter,
	pub ports.MessagePublisher,
	rabbitmq *rabbitmq.Client,
) ports.TrackingService {
	return &trackingService{
		logger:      logger,
		uow:         uow,
		deliveries:  deliveries,
		driverState: driverState,
		audit:       audit,
		registry:    registry,
		rooms:       rooms,
		pub:         pub,
		rabbitmq:    rabbitmq,
	}
}
