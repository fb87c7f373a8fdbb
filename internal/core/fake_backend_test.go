package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PayrollDash/internal/apiclient"
	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/config"
	"github.com/JonMunkholm/PayrollDash/internal/store"
)

type bulkCall struct {
	companyID  string
	employeeID string
	size       int
	groupID    *string
}

// fakeBackend is an in-memory Backend. Zero value returns empty lists.
type fakeBackend struct {
	mu sync.Mutex

	companies  []map[string]any
	employees  []map[string]any
	empErr     error
	payrolls   map[string][]map[string]any // by employee id
	payrollErr map[string]error
	payDelay   time.Duration
	nfts       []map[string]any

	mintResp map[string]any
	mintErr  error
	mintRefs []PayrollRef

	// bulk answers one chunk; nil creates every item in group "grp-1".
	bulk      func(call bulkCall) (apiclient.BulkResponse, error)
	gate      chan struct{} // when set, every bulk call waits for a receive
	bulkCalls []bulkCall

	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeBackend) Companies(ctx context.Context) ([]map[string]any, error) {
	return f.companies, nil
}

func (f *fakeBackend) Employees(ctx context.Context, companyID string) ([]map[string]any, error) {
	if f.empErr != nil {
		return nil, f.empErr
	}
	return f.employees, nil
}

func (f *fakeBackend) Payrolls(ctx context.Context, companyID, employeeID string) ([]map[string]any, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.payDelay > 0 {
		time.Sleep(f.payDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.payrollErr[employeeID]; err != nil {
		return nil, err
	}
	// Copies so callers can annotate rows freely.
	var out []map[string]any
	for _, r := range f.payrolls[employeeID] {
		cp := make(map[string]any, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeBackend) CreatePayroll(ctx context.Context, companyID, employeeID string, rec bulkimport.Record) (map[string]any, error) {
	return map[string]any{"id": "p-new"}, nil
}

func (f *fakeBackend) mint(ref PayrollRef) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mintRefs = append(f.mintRefs, ref)
	return f.mintResp, f.mintErr
}

func (f *fakeBackend) QueueMint(ctx context.Context, c, e, p string) (map[string]any, error) {
	return f.mint(PayrollRef{c, e, p})
}

func (f *fakeBackend) MintStatus(ctx context.Context, c, e, p string) (map[string]any, error) {
	return f.mint(PayrollRef{c, e, p})
}

func (f *fakeBackend) RetryMint(ctx context.Context, c, e, p string) (map[string]any, error) {
	return f.mint(PayrollRef{c, e, p})
}

func (f *fakeBackend) DecryptPayroll(ctx context.Context, c, e, p string) (map[string]any, error) {
	return f.mint(PayrollRef{c, e, p})
}

func (f *fakeBackend) EmployeeNFTs(ctx context.Context, companyID, employeeID string) ([]map[string]any, error) {
	return f.nfts, nil
}

func (f *fakeBackend) CompanyNFTs(ctx context.Context, companyID string) ([]map[string]any, error) {
	return f.nfts, nil
}

func (f *fakeBackend) BulkCreateEmployeePayrolls(ctx context.Context, companyID, employeeID string, items []bulkimport.Record, groupID *string) (apiclient.BulkResponse, error) {
	return f.doBulk(bulkCall{companyID: companyID, employeeID: employeeID, size: len(items), groupID: groupID})
}

func (f *fakeBackend) BulkCreateCompanyPayrolls(ctx context.Context, companyID string, items []bulkimport.Record, groupID *string) (apiclient.BulkResponse, error) {
	return f.doBulk(bulkCall{companyID: companyID, size: len(items), groupID: groupID})
}

func (f *fakeBackend) doBulk(call bulkCall) (apiclient.BulkResponse, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.bulkCalls = append(f.bulkCalls, call)
	fn := f.bulk
	f.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return apiclient.BulkResponse{Created: make([]any, call.size), PayrollGroupID: "grp-1"}, nil
}

func (f *fakeBackend) calls() []bulkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bulkCall(nil), f.bulkCalls...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		if key == "BACKEND_URL" {
			return "http://backend.test", true
		}
		return "", false
	})
	require.NoError(t, err)
	return cfg
}

func newTestService(t *testing.T, b *fakeBackend, tweak func(*config.Config)) (*Service, *store.Memory) {
	t.Helper()
	cfg := testConfig(t)
	if tweak != nil {
		tweak(cfg)
	}
	hist := store.NewMemory(10)
	svc, err := NewService(b, hist, cfg)
	require.NoError(t, err)
	return svc, hist
}

// payrollJSON renders n import records; every record whose index is in
// invalid lacks its national_id.
func payrollJSON(n int, invalid ...int) string {
	bad := map[int]bool{}
	for _, i := range invalid {
		bad[i] = true
	}
	s := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		id := fmt.Sprintf(`"national_id":"%011d",`, 10000000000+i)
		if bad[i] {
			id = ""
		}
		s += fmt.Sprintf(`{%s"period_start":"2024-01-01","period_end":"2024-01-31","gross_salary":%d,"net_salary":%d}`,
			id, 30000+i, 25000+i)
	}
	return s + "]"
}
