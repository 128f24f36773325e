package printing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/orderprint/internal/domain/artifact"
	"github.com/erp/orderprint/internal/domain/order"
	"github.com/erp/orderprint/internal/domain/printing"
	"github.com/erp/orderprint/internal/domain/shared"
	infra "github.com/erp/orderprint/internal/infrastructure/printing"
	"github.com/erp/orderprint/internal/infrastructure/lock"
	"github.com/erp/orderprint/internal/infrastructure/logger"
	"github.com/erp/orderprint/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RenderSpanName is the span wrapping one pipeline run
const RenderSpanName = "order.print.render"

// Render outcomes reported to the RenderObserver
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// DefaultRenderTimeout bounds a render when the config leaves it unset
const DefaultRenderTimeout = 30 * time.Second

// ErrShuttingDown is returned by Submit once Shutdown has started
var ErrShuttingDown = errors.New("print service is shutting down")

// ErrArtifactNotFound is returned by OpenArtifact when no PDF exists yet
var ErrArtifactNotFound = shared.NewDomainError(shared.CodeNotFound, "Arquivo não encontrado.")

// OrderTemplate renders an order to HTML
type OrderTemplate interface {
	RenderOrder(ctx context.Context, o *order.Order) (*infra.RenderTemplateResult, error)
}

// Locker serialises work per key
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Mirror receives a copy of every stored artifact
type Mirror interface {
	Upload(ctx context.Context, key string, data []byte) error
}

// RenderObserver records pipeline outcomes
type RenderObserver interface {
	RenderStarted(ctx context.Context)
	RenderFinished(ctx context.Context, outcome, stage string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) RenderStarted(context.Context)                                {}
func (nopObserver) RenderFinished(context.Context, string, string, time.Duration) {}

// ServiceConfig holds the pipeline settings
type ServiceConfig struct {
	Mode          Mode
	RenderTimeout time.Duration
	Page          printing.PageSetup
}

// ServiceOption configures optional collaborators
type ServiceOption func(*PrintService)

// WithLocker replaces the in-process keyed mutex
func WithLocker(l Locker) ServiceOption {
	return func(s *PrintService) { s.locker = l }
}

// WithMirror enables best-effort artifact mirroring
func WithMirror(m Mirror) ServiceOption {
	return func(s *PrintService) { s.mirror = m }
}

// WithObserver sets the render metrics sink
func WithObserver(o RenderObserver) ServiceOption {
	return func(s *PrintService) { s.observer = o }
}

// PrintService validates orders and turns them into stored PDFs
type PrintService struct {
	cfg       ServiceConfig
	validator *order.Validator
	template  OrderTemplate
	renderer  infra.PDFRenderer
	storage   infra.ArtifactStorage
	resolver  artifact.Resolver
	locker    Locker
	mirror    Mirror
	observer  RenderObserver
	logger    *zap.Logger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewPrintService creates a new PrintService
func NewPrintService(
	cfg ServiceConfig,
	validator *order.Validator,
	template OrderTemplate,
	renderer infra.PDFRenderer,
	storage infra.ArtifactStorage,
	logger *zap.Logger,
	opts ...ServiceOption,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Mode.IsValid() {
		cfg.Mode = ModeAsync
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}
	if cfg.Page == (printing.PageSetup{}) {
		cfg.Page = printing.DefaultPageSetup()
	}
	if validator == nil {
		validator = order.NewValidator(order.DefaultMaxKitDepth)
	}

	s := &PrintService{
		cfg:       cfg,
		validator: validator,
		template:  template,
		renderer:  renderer,
		storage:   storage,
		resolver:  artifact.NewResolver(storage.Root()),
		locker:    lock.NewKeyedMutex(),
		observer:  nopObserver{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the configured submission mode
func (s *PrintService) Mode() Mode {
	return s.cfg.Mode
}

// Validate checks the order without side effects
func (s *PrintService) Validate(o *order.Order) error {
	return s.validator.Validate(o)
}

// Submit validates the order and renders it according to the configured mode.
// Validation errors are *shared.DomainError and nothing is touched on disk.
// In await mode render errors are *RenderFailure; in async mode the render
// runs detached from ctx and its outcome is only logged.
func (s *PrintService) Submit(ctx context.Context, o *order.Order) (*Submission, error) {
	if err := s.Validate(o); err != nil {
		return nil, err
	}
	id, err := artifact.FromOrder(o)
	if err != nil {
		return nil, err
	}

	sub := &Submission{Mode: s.cfg.Mode, Identity: id}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	if s.cfg.Mode == ModeAwait {
		defer s.wg.Done()
		art, err := s.Render(ctx, o)
		if err != nil {
			return sub, err
		}
		sub.Artifact = art
		return sub, nil
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		// Failures are logged and measured inside Render
		_, _ = s.Render(bg, o)
	}()

	return sub, nil
}

// Render runs the pipeline for one order. Every error, including a recovered
// panic, is returned as *RenderFailure.
func (s *PrintService) Render(ctx context.Context, o *order.Order) (art *Artifact, err error) {
	start := time.Now()
	stage := StageIdentity
	var id artifact.Identity

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, RenderSpanName)
	defer span.End()

	log := logger.WithLogger(ctx, s.logger)
	s.observer.RenderStarted(ctx)

	defer func() {
		var panicked any
		if r := recover(); r != nil {
			panicked = r
			art = nil
			err = fail(stage, id, fmt.Errorf("panic: %v", r))
		}

		elapsed := time.Since(start)
		if err == nil {
			telemetry.SetOK(span)
			s.observer.RenderFinished(ctx, OutcomeSuccess, string(StageDone), elapsed)
			return
		}

		telemetry.RecordError(span, err)
		s.observer.RenderFinished(ctx, OutcomeFailure, string(stage), elapsed)

		fields := []zap.Field{
			zap.String("stage", string(stage)),
			zap.String("artifact", id.Key()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		}
		if panicked != nil {
			fields = append(fields, zap.Any("panic", panicked), zap.Stack("stacktrace"))
		}
		log.Error("order print failed", fields...)
	}()

	if o == nil {
		return nil, fail(stage, id, shared.NewRequiredError("body"))
	}
	id, err = artifact.FromOrder(o)
	if err != nil {
		return nil, fail(stage, id, err)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrHoldingKey, id.HoldingKey,
		telemetry.SpanAttrEnterpriseKey, id.EnterpriseKey,
		telemetry.SpanAttrOrderNumber, id.OrderNumber,
	)

	stage = StageTemplate
	view, terr := s.template.RenderOrder(ctx, o)
	if terr != nil {
		return nil, fail(stage, id, terr)
	}

	loc := s.resolver.Resolve(id)

	stage = StageLock
	unlock, lerr := s.locker.Lock(ctx, id.Key())
	if lerr != nil {
		return nil, fail(stage, id, lerr)
	}
	defer unlock()

	stage = StageDirectory
	if derr := s.storage.EnsureDir(ctx, loc); derr != nil {
		return nil, fail(stage, id, derr)
	}

	stage = StageConvert
	var result *infra.RenderResult
	var rerr error
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelOperation: RenderSpanName,
		telemetry.ProfilingLabelStage:     string(StageConvert),
	}, func(ctx context.Context) {
		result, rerr = s.renderer.Render(ctx, &infra.RenderRequest{
			HTML:  view.HTML,
			Page:  s.cfg.Page,
			Title: documentTitle(o, id),
		})
	})
	if rerr != nil {
		return nil, fail(stage, id, rerr)
	}

	stage = StageStore
	size, serr := s.storage.WriteAtomic(ctx, loc, result.PDFData)
	if serr != nil {
		return nil, fail(stage, id, serr)
	}

	art = &Artifact{
		Identity: id,
		Path:     loc.File,
		Relative: loc.Relative,
		URL:      s.storage.GetURL(loc.Relative),
		Size:     size,
		Pages:    result.PageCount,
		Duration: time.Since(start),
	}

	if s.mirror != nil {
		if merr := s.mirror.Upload(ctx, loc.Relative, result.PDFData); merr != nil {
			log.Warn("artifact mirror upload failed",
				zap.String("artifact", id.Key()),
				zap.Error(merr))
		} else {
			art.Mirrored = true
		}
	}

	log.Info("order printed",
		zap.String("artifact", id.Key()),
		zap.String("path", loc.File),
		zap.Int64("size", size),
		zap.Int("pages", result.PageCount),
		zap.Duration("elapsed", art.Duration))

	return art, nil
}

// OpenArtifact opens the stored PDF for id. A missing file is reported as a
// NOT_FOUND domain error.
func (s *PrintService) OpenArtifact(ctx context.Context, id artifact.Identity) (*infra.StoredFile, error) {
	f, err := s.storage.Open(ctx, s.resolver.Resolve(id))
	if err != nil {
		var re *infra.RenderError
		if errors.As(err, &re) && re.Code == infra.ErrCodeArtifactNotFound {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to open artifact %s: %w", id.Key(), err)
	}
	return f, nil
}

// CheckStorage reports whether the storage root is usable
func (s *PrintService) CheckStorage() error {
	if p, ok := s.storage.(interface{ Probe() error }); ok {
		return p.Probe()
	}
	return nil
}

// Shutdown stops accepting submissions in either mode and waits for
// in-flight renders until ctx is done. Later submissions fail with
// ErrShuttingDown.
func (s *PrintService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background renders: %w", ctx.Err())
	}
}

func documentTitle(o *order.Order, id artifact.Identity) string {
	label := order.DocumentTypeOrder.DisplayName()
	if o.Type != nil && *o.Type != "" {
		label = o.Type.DisplayName()
	}
	return label + " " + id.OrderNumber
}
