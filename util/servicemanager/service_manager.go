// Package servicemanager starts long running services, stops them in reverse order, and reports
// their combined health.
package servicemanager

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/ulogger"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
)

// Service is anything the manager can run. Start blocks until ctx is done and closes readyCh
// once the service accepts work.
type Service interface {
	Init(ctx context.Context) error
	Start(ctx context.Context, readyCh chan<- struct{}) error
	Stop(ctx context.Context) error
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
}

type serviceWrapper struct {
	name     string
	instance Service
	readyCh  chan struct{}
}

var (
	mu        sync.RWMutex
	listeners []string
)

type ServiceManager struct {
	services   []serviceWrapper
	logger     ulogger.Logger
	Ctx        context.Context
	cancelFunc context.CancelFunc
	g          *errgroup.Group
}

// NewServiceManager returns a manager whose context is canceled by SIGINT or SIGTERM.
func NewServiceManager(ctx context.Context, logger ulogger.Logger) *ServiceManager {
	ctx, cancelFunc := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	sm := &ServiceManager{
		logger:     logger,
		Ctx:        ctx,
		cancelFunc: cancelFunc,
		g:          g,
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		select {
		case <-sigs:
			sm.logger.Infof("🟠 Received shutdown signal. Stopping services...")
			sm.cancelFunc()
		case <-ctx.Done():
		}
	}()

	return sm
}

func AddListenerInfo(name string) {
	mu.Lock()
	defer mu.Unlock()

	listeners = append(listeners, name)
}

// GetListenerInfos returns the registered listeners, sorted.
func GetListenerInfos() []string {
	mu.RLock()
	defer mu.RUnlock()

	sorted := make([]string, len(listeners))
	copy(sorted, listeners)
	sort.Strings(sorted)

	return sorted
}

// AddService initializes service and starts it in the background.
func (sm *ServiceManager) AddService(name string, service Service) error {
	sw := serviceWrapper{
		name:     name,
		instance: service,
		readyCh:  make(chan struct{}),
	}

	sm.logger.Infof("⚪️ Initializing service %s...", name)

	if err := service.Init(sm.Ctx); err != nil {
		return errors.NewServiceError("failed to initialize %s", name, err)
	}

	sm.services = append(sm.services, sw)

	sm.logger.Infof("🟢 Starting service %s...", name)

	sm.g.Go(func() error {
		if err := service.Start(sm.Ctx, sw.readyCh); err != nil {
			sm.logger.Errorf("Error from service start %s: %v", name, err)
			return err
		}

		return nil
	})

	return nil
}

// WaitForServiceToBeReady blocks until every service has signalled readiness or ctx is done.
func (sm *ServiceManager) WaitForServiceToBeReady(ctx context.Context) error {
	for _, s := range sm.services {
		select {
		case <-s.readyCh:
			sm.logger.Infof("🟢 Service %s is ready", s.name)
		case <-ctx.Done():
			return errors.NewContextCanceledError("waiting for %s", s.name, ctx.Err())
		}
	}

	return nil
}

// ServicesNotReady lists the services that have not signalled readiness.
func (sm *ServiceManager) ServicesNotReady() []string {
	var notReady []string

	for _, s := range sm.services {
		select {
		case <-s.readyCh:
		default:
			notReady = append(notReady, s.name)
		}
	}

	return notReady
}

func (sm *ServiceManager) ForceShutdown() {
	sm.cancelFunc()
}

// Wait blocks until the services exit, then stops them in reverse order. A shutdown by
// cancellation is not an error.
func (sm *ServiceManager) Wait() error {
	err := sm.g.Wait()
	if err != nil {
		sm.logger.Errorf("Received error: %v", err)
	}

	for i := len(sm.services) - 1; i >= 0; i-- {
		service := sm.services[i]

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)

		sm.logger.Infof("🟠 Stopping service %s...", service.name)

		if stopErr := service.instance.Stop(stopCtx); stopErr != nil {
			sm.logger.Warnf("[%s] Failed to stop service: %v", service.name, stopErr)
		} else {
			sm.logger.Infof("[%s] Service stopped gracefully", service.name)
		}

		stopCancel()
	}

	sm.logger.Infof("🛑 All services stopped.")

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// HealthHandler returns 503 if any service is unhealthy, with each service's details as JSON.
func (sm *ServiceManager) HealthHandler(ctx context.Context, checkLiveness bool) (int, string, error) {
	overallStatus := http.StatusOK
	msgs := make([]string, 0, len(sm.services))

	for _, service := range sm.services {
		status, details, err := service.instance.Health(ctx, checkLiveness)
		if err != nil || status != http.StatusOK {
			overallStatus = http.StatusServiceUnavailable
		}

		if details == "" {
			details = "{}"
		}

		msgs = append(msgs, fmt.Sprintf(`{"service": "%s", "status": "%d", "details": %s}`, service.name, status, details))
	}

	jsonStr := fmt.Sprintf(`{"status": "%d", "services": [%s], "listeners": %s}`,
		overallStatus, strings.Join(msgs, ",\n"), listenersJSON())

	var formatted bytes.Buffer
	if err := jsonIndent(&formatted, []byte(jsonStr)); err == nil {
		jsonStr = formatted.String()
	}

	return overallStatus, jsonStr, nil
}

func listenersJSON() string {
	b, err := jsoniter.Marshal(GetListenerInfos())
	if err != nil {
		return "[]"
	}

	return string(b)
}

func jsonIndent(dst *bytes.Buffer, src []byte) error {
	var v interface{}
	if err := jsoniter.Unmarshal(src, &v); err != nil {
		return err
	}

	b, err := jsoniter.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dst.Write(b)

	return nil
}
