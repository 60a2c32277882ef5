// Package services implements the business logic layer of the subscription
// analytics application. It provides a clean separation between HTTP
// handlers and data access, ensuring that business rules are centralized
// and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Context propagation for cancellation and tracing
//	2. Dependency injection for loose coupling
//	3. Domain-focused methods that encapsulate business rules
//	4. Immutable snapshots shared read-only across requests
//
// # Available Services
//
// The package provides these core services:
//
//	- SnapshotService: owns the process-wide snapshot cache keyed by
//	  (source path, mod time), loads and cleans the source file, and
//	  collapses concurrent loads into a single flight
//	- DashboardService: computes aggregate views, facet options, and
//	  filtered record listings over the current snapshot
//	- HealthService: provides liveness, readiness, and system statistics
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	type ServiceName struct {
//	    deps   Dependencies
//	    logger *slog.Logger
//	}
//
//	func NewServiceName(deps Dependencies, logger *slog.Logger) *ServiceName {
//	    return &ServiceName{deps: deps, logger: logger}
//	}
//
//	func (s *ServiceName) BusinessOperation(ctx context.Context, input Input) (*Output, error) {
//	    result, err := s.deps.Operation(ctx, input)
//	    if err != nil {
//	        s.logger.ErrorContext(ctx, "operation failed", "error", err)
//	        return nil, fmt.Errorf("operation failed: %w", err)
//	    }
//	    return result, nil
//	}
//
// # Error Handling
//
// Services return internal/errors AppError values that handlers transform
// into RFC 7807 problem details:
//
//	- SourceUnavailable when the data file cannot be located or read
//	- Parsing errors for structurally broken files
//	- Validation errors for invalid input
//	- Internal errors for unexpected failures
//
// An empty aggregation result is a first-class outcome, never an error.
//
// # Testing
//
// Services are tested against real temporary files:
//
//	cfg := config.Default()
//	cfg.Paths.SourceFile = writeFixtureCSV(t)
//	svc := NewSnapshotService(cfg, nil, slog.Default())
//	snap, err := svc.Snapshot(ctx)
package services
