// Package service runs the game: it owns sessions, judges gestures and
// publishes improved session bests to the leaderboard.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/enso/internal/adapters/mq/queue"
	workerpool "github.com/okian/enso/internal/adapters/mq/worker"
	"github.com/okian/enso/internal/adapters/render"
	"github.com/okian/enso/internal/adapters/repository"
	"github.com/okian/enso/internal/domain/dedupe"
	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/model"
	"github.com/okian/enso/internal/domain/scoring"
	"github.com/okian/enso/internal/domain/session"
	"github.com/okian/enso/internal/domain/types"
	"github.com/okian/enso/pkg/logger"
	"github.com/okian/enso/pkg/metrics"
)

// Service implements the game operations used by the HTTP API.
type Service struct {
	mu sync.RWMutex

	judge       *scoring.Judge
	sessions    *session.Store
	replays     dedupe.Replayer
	leaderboard repository.Store
	queue       eventqueue.Queue
	pool        *workerpool.Pool
	renderer    *render.Renderer

	canvasWidth   int
	canvasHeight  int
	reference     *geometry.Point
	minPoints     int
	maxPathPoints int
	sessionTTL    time.Duration
	maxSessions   int
	workerCount   int
	queueSize     int
	dedupeSize    int
	overlaySize   int
	now           func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		canvasWidth:   800,
		canvasHeight:  600,
		minPoints:     scoring.MinPoints,
		maxPathPoints: 20_000,
		sessionTTL:    30 * time.Minute,
		maxSessions:   10_000,
		workerCount:   runtime.NumCPU(),
		queueSize:     4096,
		dedupeSize:    50_000,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reference returns the point gestures must enclose.
func (s *Service) Reference() geometry.Point {
	if s.reference != nil {
		return *s.reference
	}
	return geometry.Pt(float64(s.canvasWidth)/2, float64(s.canvasHeight)/2)
}

// Start creates and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	ref := s.Reference()
	s.judge = scoring.NewJudge(ref, scoring.WithMinPoints(s.minPoints))
	s.sessions = session.NewStore(
		session.WithTTL(s.sessionTTL),
		session.WithMaxSessions(s.maxSessions),
		session.WithMaxPathPoints(s.maxPathPoints),
		session.WithJanitorInterval(janitorInterval(s.sessionTTL)),
		session.WithClock(s.now),
	)
	s.sessions.Start(ctx)
	s.replays = dedupe.NewInMemoryReplayer(dedupe.WithMaxSize(s.dedupeSize))
	s.leaderboard = repository.NewTreapStore(ctx, repository.WithMetricsUpdateInterval(metrics.RefreshInterval()))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.leaderboard)
	s.pool.Start(ctx)

	var ropts []render.Option
	if s.overlaySize > 0 {
		ropts = append(ropts, render.WithMaxSide(s.overlaySize))
	}
	s.renderer = render.NewRenderer(s.canvasWidth, s.canvasHeight, ropts...)

	s.started = true
	s.logger.Info(ctx, "game service started",
		logger.String("reference", ref.String()),
		logger.Int("min_points", s.judge.MinPoints()),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Duration("session_ttl", s.sessionTTL),
	)
	return nil
}

// Stop drains pending leaderboard publications and stops all components.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping game service")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if closer, ok := s.leaderboard.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("leaderboard: %w", err))
		}
	}
	if err := s.sessions.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "game service stopped")
	return errors.Join(errs...)
}

// janitorInterval sweeps four times per TTL, at most once a minute.
func janitorInterval(ttl time.Duration) time.Duration {
	return min(ttl/4, time.Minute)
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// CreateSession opens a session for player.
func (s *Service) CreateSession(ctx context.Context, player string) (types.SessionView, error) {
	if err := s.running(); err != nil {
		return types.SessionView{}, err
	}
	sess, err := s.sessions.Create(player)
	if err != nil {
		metrics.RecordErrorByComponent("service", "session_create")
		return types.SessionView{}, err
	}
	s.logger.Debug(ctx, "session created",
		logger.String("session_id", sess.ID),
		logger.String("player", sess.Player),
	)
	return s.view(sess), nil
}

// Session returns the public state of a session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.SessionView{}, err
	}
	return s.view(sess), nil
}

// EndSession terminates a session. Its leaderboard entry stays.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := s.sessions.End(id); err != nil {
		return err
	}
	s.logger.Debug(ctx, "session ended", logger.String("session_id", id))
	return nil
}

func (s *Service) session(id string) (*session.Session, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.sessions.Get(id)
}

func (s *Service) view(sess *session.Session) types.SessionView {
	best := sess.Best()
	return types.SessionView{
		SessionID: sess.ID,
		Player:    sess.Player,
		BestScore: best,
		Percent:   types.Percent(best),
		Attempts:  sess.Attempts(),
		Reference: s.judge.Reference(),
	}
}

// SubmitAttempt judges a completed gesture. A repeated non-empty attemptID
// replays the first verdict with Duplicate set. An empty attemptID gets a
// fresh one.
func (s *Service) SubmitAttempt(ctx context.Context, sessionID, attemptID string, path geometry.Path) (types.AttemptResult, error) {
	if len(path) > s.maxPathPoints {
		metrics.RecordErrorByComponent("service", "path_too_long")
		return types.AttemptResult{}, fmt.Errorf("%w: %d > %d", ErrPathTooLong, len(path), s.maxPathPoints)
	}
	for i, p := range path {
		if !p.IsFinite() {
			return types.AttemptResult{}, fmt.Errorf("%w: index %d", ErrInvalidPoint, i)
		}
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return types.AttemptResult{}, err
	}
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	a, replayed, err := s.replays.Do(ctx, dedupe.Key(sess.ID, attemptID), func() (model.Attempt, error) {
		return s.judgeAttempt(ctx, sess, attemptID, path), nil
	})
	if err != nil {
		return types.AttemptResult{}, err
	}
	res := types.NewAttemptResult(a.ID, a.Verdict, a.Best, a.Improved)
	if replayed {
		metrics.RecordDuplicateAttempt()
		res.Duplicate = true
	}
	return res, nil
}

func (s *Service) judgeAttempt(ctx context.Context, sess *session.Session, attemptID string, path geometry.Path) model.Attempt {
	start := time.Now()
	v := s.judge.Evaluate(path)
	metrics.RecordJudgeLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordAttempt(string(v.Outcome), v.Points, v.Score, v.Scored())

	a := sess.Apply(model.Attempt{
		ID:        attemptID,
		SessionID: sess.ID,
		Path:      path,
		Verdict:   v,
		At:        s.now(),
	})
	if logger.Level() <= slog.LevelDebug {
		s.logger.Debug(ctx, "attempt judged", judgeFields(sess.ID, attemptID, v, path)...)
	}
	if a.Improved {
		metrics.RecordBestImprovement()
		s.publish(ctx, model.PublicationFor(a, sess.Player))
	}
	return a
}

// judgeFields describes a verdict for debug logs. Scored paths also carry
// the least-squares circle so the centroid fit can be compared against it.
func judgeFields(sessionID, attemptID string, v scoring.Verdict, path geometry.Path) []logger.Field {
	fields := []logger.Field{
		logger.String("session_id", sessionID),
		logger.String("attempt_id", attemptID),
		logger.String("outcome", string(v.Outcome)),
		logger.Float64("score", v.Score),
		logger.Int("points", v.Points),
	}
	if !v.Scored() {
		return fields
	}
	lsq, err := scoring.LeastSquaresFit(path)
	if err != nil {
		return append(fields, logger.String("lsq_fit", err.Error()))
	}
	return append(fields,
		logger.Float64("fit_radius", v.Fit.Radius),
		logger.Float64("lsq_radius", lsq.Radius),
		logger.Float64("lsq_center_offset", lsq.Center.Distance(v.Fit.Center)),
	)
}

// publish hands an improved best to the leaderboard workers. A rejected
// publication is logged and dropped; the verdict stands.
func (s *Service) publish(ctx context.Context, pub model.Publication) {
	if err := s.queue.Enqueue(ctx, pub); err != nil {
		s.logger.Warn(ctx, "leaderboard publication dropped",
			logger.String("session_id", pub.SessionID),
			logger.Float64("score", pub.Score),
			logger.Error(err),
		)
	}
}

// BeginGesture starts recording a gesture at p, replacing any gesture in
// progress.
func (s *Service) BeginGesture(ctx context.Context, sessionID string, p geometry.Point) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if !p.IsFinite() {
		return ErrInvalidPoint
	}
	sess.Begin(p)
	return nil
}

// ExtendGesture appends p to the gesture in progress. Points outside a
// gesture, beyond the point limit or non-finite are ignored.
func (s *Service) ExtendGesture(ctx context.Context, sessionID string, p geometry.Point) (bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return false, err
	}
	if !p.IsFinite() {
		return false, nil
	}
	return sess.Extend(p), nil
}

// FinishGesture judges the gesture in progress. ok is false when no gesture
// was being drawn.
func (s *Service) FinishGesture(ctx context.Context, sessionID string) (res types.AttemptResult, ok bool, err error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return types.AttemptResult{}, false, err
	}
	path, ok := sess.Finish()
	if !ok {
		return types.AttemptResult{}, false, nil
	}
	res, err = s.SubmitAttempt(ctx, sessionID, "", path)
	return res, err == nil, err
}

// ResetGesture discards the gesture in progress. The best score is kept.
func (s *Service) ResetGesture(ctx context.Context, sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.Reset()
	return nil
}

// WriteOverlay renders the last attempt of a session as PNG.
func (s *Service) WriteOverlay(ctx context.Context, sessionID string, w io.Writer) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	last, ok := sess.Last()
	if !ok {
		return ErrNoAttempt
	}
	start := time.Now()
	defer func() {
		metrics.RecordOverlayRender(float64(time.Since(start).Microseconds()) / 1000)
	}()
	return s.renderer.WritePNG(w, s.judge.Reference(), last.Path, last.Verdict.Fit)
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the leaderboard entry of a session.
func (s *Service) Rank(ctx context.Context, sessionID string) (types.Entry, error) {
	if err := s.running(); err != nil {
		return types.Entry{}, err
	}
	return s.leaderboard.Rank(ctx, sessionID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"minPoints":   s.minPoints,
		"reference":   s.Reference(),
	}
	if s.started {
		ctx := context.Background()
		stats["minPoints"] = s.judge.MinPoints()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["sessions"] = s.sessions.Count()
		stats["leaderboardSize"] = s.leaderboard.Count(ctx)
		stats["replayCacheSize"] = s.replays.Size()
	}
	return stats
}
