package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/store"
)

var (
	ErrImportNotFound   = errors.New("import not found")
	ErrImportBusy       = errors.New("import is being submitted")
	ErrImportFinished   = errors.New("import already submitted")
	ErrNothingToImport  = errors.New("no valid records to import")
	ErrMissingImportKey = errors.New("company id required for import")
)

// finishedRetention is how long a finished session stays readable for late
// result and progress requests.
const finishedRetention = 5 * time.Minute

// importSession is the mutable server-side state behind an ImportSession.
type importSession struct {
	mu sync.Mutex
	ImportSession

	touched   time.Time
	discarded bool

	// attempt is closed when a confirm gives up waiting for a limiter slot
	// and the session falls back to PhasePreviewed.
	attempt    chan struct{}
	done       chan struct{}
	listeners  []chan ImportProgress
	listenerMu sync.Mutex
}

func (sess *importSession) snapshot() *ImportSession {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	cp := sess.ImportSession
	return &cp
}

func (sess *importSession) setProgress(p ImportProgress) {
	sess.mu.Lock()
	sess.Progress = p
	sess.Phase = p.Phase
	sess.touched = time.Now()
	sess.mu.Unlock()
	sess.notify(p)
}

// notify sends without blocking. A slow listener misses intermediate updates.
func (sess *importSession) notify(p ImportProgress) {
	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()
	for _, ch := range sess.listeners {
		select {
		case ch <- p:
		default:
		}
	}
}

// end marks the session done and closes every listener. Both happen under
// listenerMu so SubscribeImport never registers a channel nobody will close.
func (sess *importSession) end() {
	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()
	close(sess.done)
	for _, ch := range sess.listeners {
		close(ch)
	}
	sess.listeners = nil
}

// StartImport parses and validates an uploaded file and keeps the preview
// until it is confirmed or discarded. Nothing is sent to the backend yet.
func (s *Service) StartImport(ctx context.Context, req ImportRequest) (*ImportSession, error) {
	if req.CompanyID == "" {
		return nil, ErrMissingImportKey
	}
	if req.Body == nil {
		return nil, &bulkimport.FileError{Code: bulkimport.CodeRead, Message: "Dosya okunamadı"}
	}

	preview, err := bulkimport.LoadPreviewLimit(req.FileName, req.Body, s.importCfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	scope := store.ScopeCompany
	if req.EmployeeID != "" {
		scope = store.ScopeEmployee
	}

	id := uuid.New().String()
	now := time.Now()
	sess := &importSession{
		ImportSession: ImportSession{
			ID:         id,
			Scope:      scope,
			CompanyID:  req.CompanyID,
			EmployeeID: req.EmployeeID,
			FileName:   preview.FileName,
			Phase:      PhasePreviewed,
			Preview:    preview,
			Progress: ImportProgress{
				ImportID: id,
				Phase:    PhasePreviewed,
				Total:    preview.ValidCount,
			},
			CreatedAt: now,
		},
		touched: now,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.imports[id] = sess
	s.mu.Unlock()

	s.logger.With(originAttrs(ctx)...).InfoContext(ctx, "import previewed",
		"import_id", id,
		"file", preview.FileName,
		"scope", scope,
		"total", preview.Total,
		"valid", preview.ValidCount,
		"invalid", preview.InvalidCount,
	)
	return sess.snapshot(), nil
}

func (s *Service) session(id string) (*importSession, error) {
	s.mu.RLock()
	sess, ok := s.imports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	return sess, nil
}

// GetImport returns the current state of a session.
func (s *Service) GetImport(id string) (*ImportSession, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// ConfirmImport submits the valid records of a previewed session in the
// background. It returns once a limiter slot is held; use SubscribeImport for
// progress and ImportResult for the outcome.
//
// Returns ErrTooManyImports if no slot frees up in time.
func (s *Service) ConfirmImport(ctx context.Context, id string) (*ImportSession, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	switch {
	case sess.discarded:
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	case sess.Phase == PhaseSubmitting:
		sess.mu.Unlock()
		return nil, ErrImportBusy
	case sess.Phase.Terminal():
		sess.mu.Unlock()
		return nil, ErrImportFinished
	case sess.Preview.ValidCount == 0:
		sess.mu.Unlock()
		return nil, ErrNothingToImport
	}
	// Claimed before waiting on the limiter so a second confirm or a discard
	// cannot race this one.
	sess.Phase = PhaseSubmitting
	attempt := make(chan struct{})
	sess.attempt = attempt
	sess.mu.Unlock()

	if err := s.limiter.Acquire(ctx); err != nil {
		sess.mu.Lock()
		sess.Phase = PhasePreviewed
		sess.mu.Unlock()
		close(attempt)
		return nil, err
	}

	sess.setProgress(ImportProgress{
		ImportID: id,
		Phase:    PhaseSubmitting,
		Total:    sess.Preview.ValidCount,
	})

	s.logger.With(originAttrs(ctx)...).InfoContext(ctx, "import confirmed",
		"import_id", id,
		"valid", sess.Preview.ValidCount,
	)

	// The run outlives the request that confirmed it.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in import",
					"import_id", id,
					"file", sess.FileName,
					"panic", r,
				)
				s.finishImport(runCtx, sess, nil, fmt.Sprintf("internal error: %v", r))
			}
		}()
		s.runImport(runCtx, sess)
	}()

	return sess.snapshot(), nil
}

func (s *Service) runImport(ctx context.Context, sess *importSession) {
	started := time.Now()
	logger := s.logger.With("import_id", sess.ID)

	p := bulkimport.Pipeline{
		ChunkSize: s.importCfg.ChunkSize,
		Submitter: apiclient.BulkSubmitter{
			Client:     s.backend,
			CompanyID:  sess.CompanyID,
			EmployeeID: sess.EmployeeID,
		},
		OnProgress: func(pr bulkimport.Progress) {
			sess.setProgress(ImportProgress{
				ImportID:  sess.ID,
				Phase:     PhaseSubmitting,
				Processed: pr.Processed,
				Total:     pr.Total,
			})
		},
		Logger: logger,
	}

	res := p.Confirm(ctx, sess.Preview)

	entry := store.Entry{
		FileName:   sess.FileName,
		Scope:      sess.Scope,
		CompanyID:  sess.CompanyID,
		EmployeeID: sess.EmployeeID,
		Total:      sess.Preview.Total,
		Valid:      sess.Preview.ValidCount,
		Invalid:    sess.Preview.InvalidCount,
		Success:    res.Success,
		Failed:     res.Failed,
		BatchID:    res.BatchID,
		Errors:     res.Errors,
		StartedAt:  started,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		logger.Warn("import history not recorded", "error", err)
	}
	s.finishImport(ctx, sess, &res, "")
}

// finishImport moves a session to its terminal phase exactly once.
func (s *Service) finishImport(ctx context.Context, sess *importSession, res *bulkimport.Result, failure string) {
	sess.mu.Lock()
	if sess.Phase.Terminal() {
		sess.mu.Unlock()
		return
	}
	progress := sess.Progress
	progress.Phase = PhaseComplete
	if res != nil {
		sess.Result = res
		progress.Processed = progress.Total
	}
	if failure != "" {
		progress.Phase = PhaseFailed
		progress.Error = failure
	}
	sess.mu.Unlock()

	sess.setProgress(progress)
	sess.end()

	if res != nil {
		s.logger.InfoContext(ctx, "import complete",
			"import_id", sess.ID,
			"file", sess.FileName,
			"success", res.Success,
			"failed", res.Failed,
			"batch_id", res.BatchID,
		)
	}
	s.forget(sess.ID, finishedRetention)
}

// forget drops a session after delay.
func (s *Service) forget(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.imports, id)
		s.mu.Unlock()
	})
}

// SubscribeImport returns a channel of progress updates. It receives the
// current state at once and is closed when the import ends.
func (s *Service) SubscribeImport(id string) (<-chan ImportProgress, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan ImportProgress, 10)
	current := sess.snapshot().Progress

	sess.listenerMu.Lock()
	defer sess.listenerMu.Unlock()

	ch <- current
	select {
	case <-sess.done:
		close(ch)
	default:
		sess.listeners = append(sess.listeners, ch)
	}
	return ch, nil
}

// DiscardImport drops a session that is not being submitted.
func (s *Service) DiscardImport(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}

	// Claimed under sess.mu so a concurrent confirm either wins first or
	// sees the session as gone.
	sess.mu.Lock()
	if sess.Phase == PhaseSubmitting {
		sess.mu.Unlock()
		return ErrImportBusy
	}
	sess.discarded = true
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.imports, id)
	s.mu.Unlock()
	return nil
}

// ImportResult waits for a confirmed import to finish and returns its result.
// A session that has not been confirmed yields a nil result.
func (s *Service) ImportResult(ctx context.Context, id string) (*bulkimport.Result, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	for finished := false; !finished; {
		sess.mu.Lock()
		phase, attempt := sess.Phase, sess.attempt
		sess.mu.Unlock()
		if phase == PhasePreviewed {
			return nil, nil
		}

		select {
		case <-sess.done:
			finished = true
		case <-attempt:
			// The confirm timed out waiting for a slot; look again.
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	snap := sess.snapshot()
	if snap.Phase == PhaseFailed {
		return snap.Result, errors.New(snap.Progress.Error)
	}
	return snap.Result, nil
}

// ImportHistory returns the most recent finished imports, newest first.
func (s *Service) ImportHistory(ctx context.Context, limit int) ([]store.Entry, error) {
	if limit <= 0 {
		limit = s.importCfg.HistoryLimit
	}
	return s.history.List(ctx, limit)
}

// ExpireImports drops previewed sessions untouched for longer than ttl.
// Sessions being submitted are never expired. Returns how many were dropped.
func (s *Service) ExpireImports(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.imports {
		sess.mu.Lock()
		stale := sess.Phase == PhasePreviewed && sess.touched.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			delete(s.imports, id)
			n++
		}
	}
	return n
}
