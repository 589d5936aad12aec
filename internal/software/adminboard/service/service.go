package service

import (
	"courier-track/internal/general/logger"
	"courier-track/internal/general/realtime"
	"courier-track/internal/ports"
)

type adminService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	deliveries  ports.DeliveryRepository
	driverState ports.DriverStateRepository
	audit       ports.AuditRepository
	registry    *realtime.Registry
	rooms       *realtime.RoomRouter
}

func NewAdminService(
	log *logger.Logger,
	uow ports.UnitOfWork,
	deliveries ports.DeliveryRepository,
	driverState ports.DriverStateRepository,
	audit ports.AuditRepository,
	registry *realtime.Registry,
	rooms *realtime.RoomRouter,
) ports.AdminService {
	return &adminService{
		logger:      log,
		uow:         uow,
		deliveries:  deliveries,
		driverState: driverState,
		audit:       audit,
		registry:    registry,
		rooms:       rooms,
	}
}
