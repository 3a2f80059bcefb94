package testfixtures

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/trainer-scheduler/internal/application"
	"github.com/example/trainer-scheduler/internal/events"
	"github.com/example/trainer-scheduler/internal/persistence"
	"github.com/example/trainer-scheduler/internal/repository"
)

// ServiceFactory assists tests with constructing the repository and store
// layers using deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults. Logs are
// discarded unless WithLogger is supplied.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("evt"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("evt")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger overrides the logger handed to every component.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewBackend builds the repository backend over the supplied stores.
func (f *ServiceFactory) NewBackend(events persistence.EventRepository, trainers persistence.TrainerRepository) *repository.Backend {
	return repository.NewBackend(events, trainers,
		repository.WithBackendClock(f.Clock.NowFunc()),
		repository.WithBackendIDGenerator(f.IDGenerator.NextFunc()),
	)
}

// NewClient builds a repository client talking to backend in process.
func (f *ServiceFactory) NewClient(backend *repository.Backend) *repository.Client {
	return repository.NewClient(
		repository.NewLocalTransport(backend),
		repository.WithLogger(f.Logger),
		repository.WithNormalizer(repository.NewNormalizer(f.Clock.NowFunc(), f.IDGenerator.NextFunc())),
	)
}

// NewStore builds a store over repo driven by the factory clock.
func (f *ServiceFactory) NewStore(repo application.Repository, opts ...application.StoreOption) *application.Store {
	base := []application.StoreOption{
		application.WithClock(f.Clock.NowFunc()),
		application.WithStoreLogger(f.Logger),
	}
	return application.NewStore(repo, append(base, opts...)...)
}

// Stack is a fully wired store on top of a temporary SQLite database.
type Stack struct {
	Harness *SQLiteHarness
	Backend *repository.Backend
	Client  *repository.Client
	Hub     *events.Hub
	Store   *application.Store
}

// NewStack wires harness, backend, client and store. The store is not
// refreshed; seed the harness first and call Refresh.
func (f *ServiceFactory) NewStack(tb testing.TB, opts ...application.StoreOption) *Stack {
	tb.Helper()

	harness := NewSQLiteHarness(tb)
	backend := f.NewBackend(harness.Events, harness.Trainers)
	client := f.NewClient(backend)
	hub := events.NewHub(f.Logger)
	store := f.NewStore(client, append([]application.StoreOption{application.WithHub(hub)}, opts...)...)
	return &Stack{Harness: harness, Backend: backend, Client: client, Hub: hub, Store: store}
}
