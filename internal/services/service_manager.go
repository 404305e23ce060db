package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/qti-delivery-service/internal/events"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories"
	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	repo           repositories.SessionRepository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator

	deliveryService DeliveryService
	exportService   ExportService

	shutdown bool
	mu       sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies
func NewServiceManager(repo repositories.SessionRepository, eventPublisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) ServiceManager {
	sm := &serviceManager{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      v,
	}
	sm.deliveryService = NewDeliveryService(repo, eventPublisher, logger, v)
	sm.exportService = NewExportService(repo, logger)
	return sm
}

func (sm *serviceManager) Delivery() DeliveryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.deliveryService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.exportService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	if err := sm.eventPublisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
		return err
	}
	sm.logger.Info("Service manager shut down")
	return nil
}
