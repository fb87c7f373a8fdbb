package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/config"
	"github.com/JonMunkholm/PayrollDash/internal/store"
)

func startImport(t *testing.T, svc *Service, employeeID, body string) *ImportSession {
	t.Helper()
	sess, err := svc.StartImport(context.Background(), ImportRequest{
		CompanyID:  "c1",
		EmployeeID: employeeID,
		FileName:   "ocak.json",
		Body:       strings.NewReader(body),
	})
	require.NoError(t, err)
	return sess
}

func waitResult(t *testing.T, svc *Service, id string) *bulkimport.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.ImportResult(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestStartImport_Preview(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, nil)

	sess := startImport(t, svc, "", payrollJSON(3, 1))

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, PhasePreviewed, sess.Phase)
	assert.Equal(t, store.ScopeCompany, sess.Scope)
	assert.Equal(t, 3, sess.Preview.Total)
	assert.Equal(t, 2, sess.Preview.ValidCount)
	assert.Equal(t, 1, sess.Preview.InvalidCount)
	assert.Equal(t, 2, sess.Progress.Total)

	got, err := svc.GetImport(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestStartImport_Rejects(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, nil)
	ctx := context.Background()

	_, err := svc.StartImport(ctx, ImportRequest{FileName: "a.json", Body: strings.NewReader("[]")})
	assert.ErrorIs(t, err, ErrMissingImportKey)

	_, err = svc.StartImport(ctx, ImportRequest{CompanyID: "c1", FileName: "a.csv", Body: strings.NewReader("[]")})
	var fe *bulkimport.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, bulkimport.CodeExtension, fe.Code)
	assert.Equal(t, "FILE001", MapError(err).Code)
}

func TestStartImport_HonoursMaxFileSize(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, func(c *config.Config) {
		c.Import.MaxFileSize = 64
	})

	_, err := svc.StartImport(context.Background(), ImportRequest{
		CompanyID: "c1",
		FileName:  "big.json",
		Body:      strings.NewReader(payrollJSON(5)),
	})
	var fe *bulkimport.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, bulkimport.CodeTooLarge, fe.Code)
}

func TestConfirmImport_SubmitsInChunks(t *testing.T) {
	b := &fakeBackend{}
	svc, hist := newTestService(t, b, func(c *config.Config) {
		c.Import.ChunkSize = 2
	})

	sess := startImport(t, svc, "", payrollJSON(5))
	_, err := svc.ConfirmImport(context.Background(), sess.ID)
	require.NoError(t, err)

	res := waitResult(t, svc, sess.ID)
	assert.Equal(t, 5, res.Success)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, "grp-1", res.BatchID)
	assert.Equal(t, 3, res.Chunks)

	calls := b.calls()
	require.Len(t, calls, 3)
	assert.Nil(t, calls[0].groupID)
	for _, c := range calls[1:] {
		require.NotNil(t, c.groupID)
		assert.Equal(t, "grp-1", *c.groupID)
		assert.Empty(t, c.employeeID)
	}
	assert.Equal(t, []int{2, 2, 1}, []int{calls[0].size, calls[1].size, calls[2].size})

	got, err := svc.GetImport(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, got.Phase)
	assert.Equal(t, 100, got.Progress.Percent())

	entries, err := svc.ImportHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ocak.json", entries[0].FileName)
	assert.Equal(t, 5, entries[0].Success)

	direct, _ := hist.List(context.Background(), 10)
	assert.Len(t, direct, 1)
}

func TestConfirmImport_EmployeeScope(t *testing.T) {
	b := &fakeBackend{}
	svc, _ := newTestService(t, b, nil)

	sess := startImport(t, svc, "e7", payrollJSON(2))
	assert.Equal(t, store.ScopeEmployee, sess.Scope)

	_, err := svc.ConfirmImport(context.Background(), sess.ID)
	require.NoError(t, err)
	waitResult(t, svc, sess.ID)

	calls := b.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "e7", calls[0].employeeID)
	assert.Equal(t, "c1", calls[0].companyID)
}

func TestConfirmImport_ChunkFailureCountsWholeChunk(t *testing.T) {
	b := &fakeBackend{}
	b.bulk = func(call bulkCall) (apiclient.BulkResponse, error) {
		if call.groupID != nil {
			return apiclient.BulkResponse{}, &apiclient.APIError{Status: 500, Message: "boom"}
		}
		return apiclient.BulkResponse{Created: make([]any, call.size-1), Failed: []any{"x"}, PayrollGroupID: "g"}, nil
	}
	svc, _ := newTestService(t, b, func(c *config.Config) { c.Import.ChunkSize = 3 })

	sess := startImport(t, svc, "", payrollJSON(7))
	_, err := svc.ConfirmImport(context.Background(), sess.ID)
	require.NoError(t, err)

	res := waitResult(t, svc, sess.ID)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 1+3+1, res.Failed)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, sess.Preview.ValidCount, res.Success+res.Failed)
}

func TestConfirmImport_PanickingBackendDoesNotLeakSlot(t *testing.T) {
	b := &fakeBackend{}
	b.bulk = func(bulkCall) (apiclient.BulkResponse, error) { panic("kaboom") }
	svc, _ := newTestService(t, b, nil)

	sess := startImport(t, svc, "", payrollJSON(2))
	_, err := svc.ConfirmImport(context.Background(), sess.ID)
	require.NoError(t, err)

	res := waitResult(t, svc, sess.ID)
	assert.Equal(t, 2, res.Failed)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.WaitForImports(ctx))
	assert.Equal(t, 0, svc.ImportLimiterStatus().Active)
}

func TestConfirmImport_StateRules(t *testing.T) {
	b := &fakeBackend{gate: make(chan struct{})}
	svc, _ := newTestService(t, b, nil)
	ctx := context.Background()

	_, err := svc.ConfirmImport(ctx, "missing")
	assert.ErrorIs(t, err, ErrImportNotFound)

	empty := startImport(t, svc, "", payrollJSON(2, 0, 1))
	_, err = svc.ConfirmImport(ctx, empty.ID)
	assert.ErrorIs(t, err, ErrNothingToImport)

	sess := startImport(t, svc, "", payrollJSON(1))
	_, err = svc.ConfirmImport(ctx, sess.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmImport(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrImportBusy)
	assert.ErrorIs(t, svc.DiscardImport(sess.ID), ErrImportBusy)

	b.gate <- struct{}{}
	waitResult(t, svc, sess.ID)

	_, err = svc.ConfirmImport(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrImportFinished)

	require.NoError(t, svc.DiscardImport(sess.ID))
	_, err = svc.GetImport(sess.ID)
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestConfirmImport_TooManyImports(t *testing.T) {
	b := &fakeBackend{gate: make(chan struct{})}
	svc, _ := newTestService(t, b, func(c *config.Config) {
		c.Import.MaxConcurrent = 1
		c.Import.MaxWaitTime = 30 * time.Millisecond
	})
	ctx := context.Background()

	first := startImport(t, svc, "", payrollJSON(1))
	second := startImport(t, svc, "", payrollJSON(1))

	_, err := svc.ConfirmImport(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmImport(ctx, second.ID)
	assert.ErrorIs(t, err, ErrTooManyImports)

	// The rejected session can be confirmed later.
	got, err := svc.GetImport(second.ID)
	require.NoError(t, err)
	assert.Equal(t, PhasePreviewed, got.Phase)

	b.gate <- struct{}{}
	waitResult(t, svc, first.ID)
}

func TestDiscardImport_ConcurrentConfirm(t *testing.T) {
	// The gate holds every confirmed run in PhaseSubmitting until released.
	b := &fakeBackend{gate: make(chan struct{})}
	svc, _ := newTestService(t, b, func(c *config.Config) {
		c.Import.MaxConcurrent = 50
	})
	ctx := context.Background()

	for i := 0; i < 300; i++ {
		sess := startImport(t, svc, "", payrollJSON(1))

		var (
			wg         sync.WaitGroup
			confirmErr error
			discardErr error
		)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, confirmErr = svc.ConfirmImport(ctx, sess.ID)
		}()
		go func() {
			defer wg.Done()
			<-start
			discardErr = svc.DiscardImport(sess.ID)
		}()
		close(start)
		wg.Wait()

		require.False(t, confirmErr == nil && discardErr == nil,
			"run %d: confirm and discard both succeeded", i)
		if confirmErr == nil {
			assert.ErrorIs(t, discardErr, ErrImportBusy)
			b.gate <- struct{}{}
			waitResult(t, svc, sess.ID)
		} else {
			assert.ErrorIs(t, confirmErr, ErrImportNotFound)
		}
	}
}

func TestImportResult_ReturnsWhenConfirmGivesUp(t *testing.T) {
	b := &fakeBackend{gate: make(chan struct{})}
	svc, _ := newTestService(t, b, func(c *config.Config) {
		c.Import.MaxConcurrent = 1
		c.Import.MaxWaitTime = 200 * time.Millisecond
	})
	ctx := context.Background()

	first := startImport(t, svc, "", payrollJSON(1))
	second := startImport(t, svc, "", payrollJSON(1))
	_, err := svc.ConfirmImport(ctx, first.ID)
	require.NoError(t, err)

	confirmed := make(chan error, 1)
	go func() {
		_, err := svc.ConfirmImport(ctx, second.ID)
		confirmed <- err
	}()
	require.Eventually(t, func() bool {
		got, err := svc.GetImport(second.ID)
		return err == nil && got.Phase == PhaseSubmitting
	}, 2*time.Second, time.Millisecond)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := svc.ImportResult(waitCtx, second.ID)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, <-confirmed, ErrTooManyImports)

	b.gate <- struct{}{}
	waitResult(t, svc, first.ID)
}

func TestSubscribeImport_ReceivesProgressUntilClosed(t *testing.T) {
	b := &fakeBackend{gate: make(chan struct{})}
	svc, _ := newTestService(t, b, func(c *config.Config) { c.Import.ChunkSize = 1 })

	sess := startImport(t, svc, "", payrollJSON(3))
	_, err := svc.ConfirmImport(context.Background(), sess.ID)
	require.NoError(t, err)

	ch, err := svc.SubscribeImport(sess.ID)
	require.NoError(t, err)

	go func() {
		for i := 0; i < 3; i++ {
			b.gate <- struct{}{}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	var last ImportProgress
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case p, ok := <-ch:
			if !ok {
				done = true
				break
			}
			assert.LessOrEqual(t, p.Processed, p.Total)
			last = p
		case <-timeout:
			t.Fatal("progress channel never closed")
		}
	}

	assert.Equal(t, PhaseComplete, last.Phase)
	assert.Equal(t, 3, last.Processed)
	assert.Equal(t, 3, last.Total)
}

func TestSubscribeImport_AfterFinish(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, nil)

	sess := startImport(t, svc, "", payrollJSON(1))
	_, err := svc.ConfirmImport(context.Background(), sess.ID)
	require.NoError(t, err)
	waitResult(t, svc, sess.ID)

	ch, err := svc.SubscribeImport(sess.ID)
	require.NoError(t, err)

	p, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, PhaseComplete, p.Phase)
	_, ok = <-ch
	assert.False(t, ok)

	_, err = svc.SubscribeImport("nope")
	assert.True(t, errors.Is(err, ErrImportNotFound))
}

func TestImportResult_NotConfirmed(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, nil)
	sess := startImport(t, svc, "", payrollJSON(1))

	res, err := svc.ImportResult(context.Background(), sess.ID)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestExpireImports(t *testing.T) {
	b := &fakeBackend{gate: make(chan struct{})}
	svc, _ := newTestService(t, b, nil)

	idle := startImport(t, svc, "", payrollJSON(1))
	busy := startImport(t, svc, "", payrollJSON(1))
	_, err := svc.ConfirmImport(context.Background(), busy.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, svc.ExpireImports(time.Millisecond))

	_, err = svc.GetImport(idle.ID)
	assert.ErrorIs(t, err, ErrImportNotFound)
	_, err = svc.GetImport(busy.ID)
	assert.NoError(t, err)

	b.gate <- struct{}{}
	waitResult(t, svc, busy.ID)
}

func TestStartSessionJanitor_StopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{}, nil)
	startImport(t, svc, "", payrollJSON(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartSessionJanitor(ctx, JanitorConfig{TTL: time.Millisecond, CheckInterval: 5 * time.Millisecond})
		close(done)
	}()

	assert.Eventually(t, func() bool {
		svc.mu.RLock()
		defer svc.mu.RUnlock()
		return len(svc.imports) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
