// internal/lifecycle/engine_test.go
package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"deal-workers/internal/aggregation"
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/models"
	"deal-workers/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// Monday; the Friday of the week after next is 2026-10-23.
var testNow = time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)

type faultyGateway struct {
	repository.Gateway
	mu          sync.Mutex
	failPuts    int
	failRemoves int
}

func (g *faultyGateway) Put(ctx context.Context, c repository.Collection, rec repository.Record) error {
	g.mu.Lock()
	fail := g.failPuts > 0
	if fail {
		g.failPuts--
	}
	g.mu.Unlock()
	if fail {
		return fmt.Errorf("write rejected: quota exceeded")
	}
	return g.Gateway.Put(ctx, c, rec)
}

func (g *faultyGateway) Remove(ctx context.Context, c repository.Collection, id string) error {
	g.mu.Lock()
	fail := g.failRemoves > 0
	if fail {
		g.failRemoves--
	}
	g.mu.Unlock()
	if fail {
		return fmt.Errorf("write rejected: quota exceeded")
	}
	return g.Gateway.Remove(ctx, c, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.DealEvent
}

func (p *recordingPublisher) PublishDealEvent(_ context.Context, e models.DealEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	engine *Engine
	store  *repository.Store
	cache  *repository.SummaryCache
	gw     *faultyGateway
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	cache := repository.NewSummaryCache(rdb, "test", time.Minute)
	gw := &faultyGateway{Gateway: repository.NewRedisGateway(rdb, "test")}
	store := repository.NewStore(gw, repository.WithCleaner(cache), repository.WithLogger(log))
	events := &recordingPublisher{}

	engine, err := NewEngine(EngineOptions{
		Store:       store,
		Invalidator: cache,
		Publisher:   events,
		Logger:      log,
		Now:         func() time.Time { return testNow },
	})
	require.NoError(t, err)

	require.NoError(t, store.PutSeller(context.Background(), &models.SellerProfile{
		ID: "seller-a", Name: "Alex", PayType: models.PayTypeRookie,
	}))
	return &fixture{engine: engine, store: store, cache: cache, gw: gw, events: events}
}

var (
	seller  = auth.Actor{ID: "seller-a", Role: auth.RoleSeller}
	other   = auth.Actor{ID: "seller-b", Role: auth.RoleSeller}
	manager = auth.Actor{ID: "manager-1", Role: auth.RoleManager}
	admin   = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
)

func f64(v float64) *float64 { return &v }

func (f *fixture) seedSet(t *testing.T, id string, status models.SetStatus) {
	t.Helper()
	require.NoError(t, f.store.PutSet(context.Background(), &models.Set{
		ID:        id,
		OwnerID:   "seller-a",
		Customer:  models.Customer{CustomerName: "Jane Doe", Phone: "555-0100"},
		Status:    status,
		Notes:     "south facing roof",
		CreatedAt: testNow.Add(-48 * time.Hour),
	}))
}

func (f *fixture) seedProjects(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, f.store.PutProject(context.Background(), &models.Project{
			ID:         fmt.Sprintf("old-%02d", i),
			OwnerID:    "seller-a",
			Customer:   models.Customer{CustomerName: "Prior"},
			Status:     models.ProjectStatusPaid,
			DealNumber: i,
		}))
	}
}

func validConvertRequest(setID string) ConvertRequest {
	survey := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	return ConvertRequest{
		SetID:             setID,
		Verified:          true,
		SystemSizeKw:      f64(4.0),
		GrossPricePerWatt: f64(7.14),
		Adders:            models.Adders{EABattery: true, MPU: true},
		SurveyDate:        &survey,
		SurveyTime:        "10:30",
	}
}

func fieldCodes(t *testing.T, err error) []string {
	t.Helper()
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	require.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
	var codes []string
	for _, f := range stdErr.Fields() {
		codes = append(codes, f.Code)
	}
	return codes
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine(EngineOptions{})
	assert.Error(t, err)
}

// ==========================
// Set Transition Tests
// ==========================

func TestCanTransitionSet(t *testing.T) {
	tests := []struct {
		from   models.SetStatus
		action SetAction
		want   bool
	}{
		{models.SetStatusActive, SetActionCancel, true},
		{models.SetStatusActive, SetActionReactivate, false},
		{models.SetStatusActive, SetActionClose, true},
		{models.SetStatusActive, SetActionReopen, false},
		{models.SetStatusNotClosed, SetActionCancel, false},
		{models.SetStatusNotClosed, SetActionReactivate, true},
		{models.SetStatusNotClosed, SetActionClose, true},
		{models.SetStatusNotClosed, SetActionReopen, false},
		{models.SetStatusClosed, SetActionCancel, false},
		{models.SetStatusClosed, SetActionReactivate, false},
		{models.SetStatusClosed, SetActionClose, false},
		{models.SetStatusClosed, SetActionReopen, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionSet(tt.from, tt.action))
		})
	}
}

func TestTransitionSet_FullCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSet(t, "set-1", models.SetStatusActive)

	set, err := f.engine.CancelSet(ctx, seller, "set-1")
	require.NoError(t, err)
	assert.Equal(t, models.SetStatusNotClosed, set.Status)

	set, err = f.engine.ReactivateSet(ctx, seller, "set-1")
	require.NoError(t, err)
	assert.Equal(t, models.SetStatusActive, set.Status)

	set, err = f.engine.CloseSet(ctx, seller, "set-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.SetStatusClosed, set.Status)

	set, err = f.engine.ReopenSet(ctx, seller, "set-1")
	require.NoError(t, err)
	assert.Equal(t, models.SetStatusNotClosed, set.Status)

	stored, err := f.store.GetSet(ctx, "set-1")
	require.NoError(t, err)
	assert.Equal(t, models.SetStatusNotClosed, stored.Status)
	assert.Equal(t, testNow, stored.UpdatedAt)
}

func TestTransitionSet_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSet(t, "set-1", models.SetStatusClosed)

	t.Run("illegal edge", func(t *testing.T) {
		_, err := f.engine.CancelSet(ctx, seller, "set-1")
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTransition))
	})

	t.Run("close needs confirmation", func(t *testing.T) {
		f.seedSet(t, "set-2", models.SetStatusActive)
		_, err := f.engine.CloseSet(ctx, seller, "set-2", false)
		assert.Equal(t, []string{errors.FieldConfirmationRequired}, fieldCodes(t, err))

		stored, err := f.store.GetSet(ctx, "set-2")
		require.NoError(t, err)
		assert.Equal(t, models.SetStatusActive, stored.Status)
	})

	t.Run("other seller", func(t *testing.T) {
		_, err := f.engine.ReopenSet(ctx, other, "set-1")
		assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))
	})

	t.Run("admin may act on any set", func(t *testing.T) {
		_, err := f.engine.ReopenSet(ctx, admin, "set-1")
		assert.NoError(t, err)
	})

	t.Run("missing set", func(t *testing.T) {
		_, err := f.engine.CancelSet(ctx, seller, "nope")
		assert.True(t, errors.HasCode(err, errors.ErrCodeSetNotFound))
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := ParseSetAction("archive")
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	})
}

// ==========================
// Conversion Tests
// ==========================

func TestConvertSet_PreservesIdentityAndRemovesSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSet(t, "set-1", models.SetStatusClosed)

	res, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-1"))
	require.NoError(t, err)

	p := res.Project
	assert.Equal(t, "set-1", p.ID)
	assert.Equal(t, "seller-a", p.OwnerID)
	assert.Equal(t, "Jane Doe", p.CustomerName)
	assert.Equal(t, "555-0100", p.Phone)
	assert.Equal(t, models.ProjectStatusSiteSurvey, p.Status)
	assert.Equal(t, models.Adders{EABattery: true, MPU: true}, p.Adders)
	assert.Equal(t, 1, p.DealNumber)
	assert.InDelta(t, 800.0, p.PaymentAmount, 1e-9)
	assert.Equal(t, "south facing roof", p.Notes)
	assert.Equal(t, 300.0, res.UpfrontPay)
	assert.False(t, res.Resumed)

	sets, err := f.store.ListSets(ctx, "seller-a")
	require.NoError(t, err)
	assert.Empty(t, sets)

	stored, err := f.store.GetProject(ctx, "set-1")
	require.NoError(t, err)
	assert.Equal(t, p.DealNumber, stored.DealNumber)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.DealEventConverted, f.events.events[0].Type)
	assert.Equal(t, 300.0, f.events.events[0].UpfrontPay)
}

func TestConvertSet_ReportsEveryMissingField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.PutSet(ctx, &models.Set{ID: "set-1", OwnerID: "seller-a", Status: models.SetStatusActive}))

	_, err := f.engine.ConvertSet(ctx, seller, ConvertRequest{SetID: "set-1"})

	assert.ElementsMatch(t, []string{
		errors.FieldSetNotClosed,
		errors.FieldVerificationRequired,
		errors.FieldMissingCustomerName,
		errors.FieldMissingSystemSize,
		errors.FieldMissingGrossPPW,
		errors.FieldMissingSurveyDate,
		errors.FieldMissingSurveyTime,
	}, fieldCodes(t, err))

	// nothing was written
	_, found, err := f.store.FindProject(ctx, "set-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConvertSet_SingleMissingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ConvertRequest)
		code   string
	}{
		{"not verified", func(r *ConvertRequest) { r.Verified = false }, errors.FieldVerificationRequired},
		{"no size", func(r *ConvertRequest) { r.SystemSizeKw = nil }, errors.FieldMissingSystemSize},
		{"zero size", func(r *ConvertRequest) { r.SystemSizeKw = f64(0) }, errors.FieldMissingSystemSize},
		{"no ppw", func(r *ConvertRequest) { r.GrossPricePerWatt = nil }, errors.FieldMissingGrossPPW},
		{"no survey date", func(r *ConvertRequest) { r.SurveyDate = nil }, errors.FieldMissingSurveyDate},
		{"blank survey time", func(r *ConvertRequest) { r.SurveyTime = "  " }, errors.FieldMissingSurveyTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedSet(t, "set-1", models.SetStatusClosed)

			req := validConvertRequest("set-1")
			tt.mutate(&req)
			_, err := f.engine.ConvertSet(context.Background(), seller, req)
			assert.Equal(t, []string{tt.code}, fieldCodes(t, err))
		})
	}
}

func TestConvertSet_EleventhDeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProjects(t, 10)
	f.seedSet(t, "set-11", models.SetStatusClosed)

	res, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-11"))
	require.NoError(t, err)

	assert.Equal(t, 11, res.Project.DealNumber)
	assert.Equal(t, 2, res.Tier.Level)
	assert.Equal(t, 250.0, res.Tier.RatePerKw)
	assert.InDelta(t, 1000.0, res.Project.PaymentAmount, 1e-9)
}

func TestConvertSet_DealNumberSurvivesCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProjects(t, 3)

	_, err := f.engine.CancelProject(ctx, seller, "old-02")
	require.NoError(t, err)

	f.seedSet(t, "set-4", models.SetStatusClosed)
	res, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-4"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Project.DealNumber, "cancelled projects still count")

	_, err = f.engine.CancelProject(ctx, seller, "old-01")
	require.NoError(t, err)

	stored, err := f.store.GetProject(ctx, "set-4")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.DealNumber)

	third, err := f.store.GetProject(ctx, "old-03")
	require.NoError(t, err)
	assert.Equal(t, 3, third.DealNumber)
}

func TestConvertSet_PaymentDate(t *testing.T) {
	supplied := time.Date(2026, 12, 4, 0, 0, 0, 0, time.UTC)

	t.Run("scheduled for early deals", func(t *testing.T) {
		f := newFixture(t)
		f.seedSet(t, "set-1", models.SetStatusClosed)

		req := validConvertRequest("set-1")
		req.PaymentDate = &supplied
		res, err := f.engine.ConvertSet(context.Background(), seller, req)
		require.NoError(t, err)
		require.NotNil(t, res.Project.PaymentDate)
		assert.Equal(t, time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC), *res.Project.PaymentDate)
	})

	t.Run("user supplied past twenty", func(t *testing.T) {
		f := newFixture(t)
		f.seedProjects(t, 20)
		f.seedSet(t, "set-21", models.SetStatusClosed)

		req := validConvertRequest("set-21")
		req.PaymentDate = &supplied
		res, err := f.engine.ConvertSet(context.Background(), seller, req)
		require.NoError(t, err)
		assert.Equal(t, 21, res.Project.DealNumber)
		assert.Equal(t, 200.0, res.Tier.RatePerKw)
		require.NotNil(t, res.Project.PaymentDate)
		assert.Equal(t, supplied, *res.Project.PaymentDate)
	})

	t.Run("left empty past twenty", func(t *testing.T) {
		f := newFixture(t)
		f.seedProjects(t, 20)
		f.seedSet(t, "set-21", models.SetStatusClosed)

		res, err := f.engine.ConvertSet(context.Background(), seller, validConvertRequest("set-21"))
		require.NoError(t, err)
		assert.Nil(t, res.Project.PaymentDate)
	})
}

func TestConvertSet_WriteFailureLeavesSetInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSet(t, "set-1", models.SetStatusClosed)
	f.gw.failPuts = 2

	_, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-1"))
	require.Error(t, err)

	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeStorageWriteFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)

	set, err := f.store.GetSet(ctx, "set-1")
	require.NoError(t, err)
	assert.Equal(t, models.SetStatusClosed, set.Status)

	_, found, err := f.store.FindProject(ctx, "set-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, f.events.events)
}

func TestConvertSet_RecoversAfterOneRejectedWrite(t *testing.T) {
	f := newFixture(t)
	f.seedSet(t, "set-1", models.SetStatusClosed)
	f.gw.failPuts = 1

	res, err := f.engine.ConvertSet(context.Background(), seller, validConvertRequest("set-1"))
	require.NoError(t, err)
	assert.Equal(t, "set-1", res.Project.ID)
}

func TestConvertSet_ResumesAfterPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSet(t, "set-1", models.SetStatusClosed)
	f.gw.failRemoves = 2

	_, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-1"))
	require.True(t, errors.HasCode(err, errors.ErrCodeStorageWriteFailed))

	res, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-1"))
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 1, res.Project.DealNumber)

	_, err = f.store.GetSet(ctx, "set-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSetNotFound))

	n, err := f.store.CountProjects(ctx, "seller-a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConvertSet_ConcurrentAttemptsConvertOnce(t *testing.T) {
	f := newFixture(t)
	f.seedSet(t, "set-1", models.SetStatusClosed)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*ConvertResult
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.engine.ConvertSet(context.Background(), seller, validConvertRequest("set-1"))
			if err == nil {
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, results, 4)
	fresh := 0
	for _, r := range results {
		assert.Equal(t, 1, r.Project.DealNumber)
		if !r.Resumed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestConvertSet_ParallelSetsOfOneOwnerGetDistinctDealNumbers(t *testing.T) {
	const sets = 4
	for run := 0; run < 10; run++ {
		f := newFixture(t)
		for i := 1; i <= sets; i++ {
			f.seedSet(t, fmt.Sprintf("set-%d", i), models.SetStatusClosed)
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			numbers []int
		)
		for i := 1; i <= sets; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				res, err := f.engine.ConvertSet(context.Background(), seller, validConvertRequest(id))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				numbers = append(numbers, res.Project.DealNumber)
				mu.Unlock()
			}(fmt.Sprintf("set-%d", i))
		}
		wg.Wait()

		sort.Ints(numbers)
		require.Equal(t, []int{1, 2, 3, 4}, numbers, "run %d", run)

		n, err := f.store.CountProjects(context.Background(), "seller-a")
		require.NoError(t, err)
		assert.Equal(t, sets, n)
	}
}

func TestConvertSet_Authorization(t *testing.T) {
	f := newFixture(t)
	f.seedSet(t, "set-1", models.SetStatusClosed)

	_, err := f.engine.ConvertSet(context.Background(), other, validConvertRequest("set-1"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))

	_, err = f.engine.ConvertSet(context.Background(), other, validConvertRequest("missing"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeSetNotFound))
}

// ==========================
// Project Transition Tests
// ==========================

func TestCancelThenReactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProjects(t, 1)

	_, err := f.engine.SetProjectStatus(ctx, seller, "old-01", models.ProjectStatusPTO)
	require.NoError(t, err)

	cancelled, err := f.engine.CancelProject(ctx, seller, "old-01")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, testNow, *cancelled.CancelledAt)

	back, err := f.engine.ReactivateProject(ctx, seller, "old-01")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusSiteSurvey, back.Status, "reactivation does not restore pto")
	assert.Nil(t, back.CancelledAt)
	assert.Equal(t, 1, back.DealNumber)

	types := []models.DealEventType{}
	for _, e := range f.events.events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []models.DealEventType{models.DealEventCancelled, models.DealEventReactivated}, types)
}

func TestSetProjectStatus_Routing(t *testing.T) {
	tests := []struct {
		name       string
		start      models.ProjectStatus
		to         models.ProjectStatus
		wantStatus models.ProjectStatus
		wantCode   errors.ErrorCode
		cancelled  bool
	}{
		{name: "happy path step", start: models.ProjectStatusSiteSurvey, to: models.ProjectStatusInstall, wantStatus: models.ProjectStatusInstall},
		{name: "backwards jump", start: models.ProjectStatusPaid, to: models.ProjectStatusSiteSurvey, wantStatus: models.ProjectStatusSiteSurvey},
		{name: "on hold", start: models.ProjectStatusInstall, to: models.ProjectStatusOnHold, wantStatus: models.ProjectStatusOnHold},
		{name: "off hold", start: models.ProjectStatusOnHold, to: models.ProjectStatusPTO, wantStatus: models.ProjectStatusPTO},
		{name: "to cancelled stamps time", start: models.ProjectStatusInstall, to: models.ProjectStatusCancelled, wantStatus: models.ProjectStatusCancelled, cancelled: true},
		{name: "cancelled to site survey reactivates", start: models.ProjectStatusCancelled, to: models.ProjectStatusSiteSurvey, wantStatus: models.ProjectStatusSiteSurvey},
		{name: "cancelled to install", start: models.ProjectStatusCancelled, to: models.ProjectStatusInstall, wantCode: errors.ErrCodeInvalidTransition},
		{name: "cancelled to cancelled", start: models.ProjectStatusCancelled, to: models.ProjectStatusCancelled, wantCode: errors.ErrCodeInvalidTransition},
		{name: "unknown status", start: models.ProjectStatusInstall, to: "shipped", wantCode: errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			start := &models.Project{ID: "p-1", OwnerID: "seller-a", Status: tt.start, DealNumber: 1}
			if tt.start == models.ProjectStatusCancelled {
				at := testNow.Add(-time.Hour)
				start.CancelledAt = &at
			}
			require.NoError(t, f.store.PutProject(ctx, start))

			got, err := f.engine.SetProjectStatus(ctx, seller, "p-1", tt.to)
			if tt.wantCode != "" {
				assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.cancelled, got.CancelledAt != nil)
		})
	}
}

func TestProjectTransitions_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProjects(t, 1)

	_, err := f.engine.ReactivateProject(ctx, seller, "old-01")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTransition))

	_, err = f.engine.CancelProject(ctx, other, "old-01")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))

	_, err = f.engine.CancelProject(ctx, seller, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeProjectNotFound))

	_, err = f.engine.CancelProject(ctx, seller, "old-01")
	require.NoError(t, err)
	_, err = f.engine.CancelProject(ctx, seller, "old-01")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTransition))
}

func TestProjectTransition_WriteFailureKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProjects(t, 1)
	f.gw.failPuts = 2

	_, err := f.engine.CancelProject(ctx, seller, "old-01")
	require.True(t, errors.HasCode(err, errors.ErrCodeStorageWriteFailed))

	stored, err := f.store.GetProject(ctx, "old-01")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusPaid, stored.Status)
	assert.Nil(t, stored.CancelledAt)
}

// ==========================
// Milestone & Pay Type Tests
// ==========================

func TestUpdateMilestones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedSet(t, "set-1", models.SetStatusClosed)
	_, err := f.engine.ConvertSet(ctx, seller, validConvertRequest("set-1"))
	require.NoError(t, err)

	install := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	updated, err := f.engine.UpdateMilestones(ctx, seller, MilestoneUpdate{
		ProjectID:    "set-1",
		InstallDate:  &install,
		SystemSizeKw: f64(5.5),
		Adders:       &models.Adders{Reroof: true},
	})
	require.NoError(t, err)

	assert.Equal(t, install, *updated.InstallDate)
	assert.Equal(t, 5.5, *updated.SystemSizeKw)
	assert.Equal(t, 7.14, *updated.GrossPricePerWatt)
	assert.Equal(t, models.Adders{Reroof: true}, updated.Adders)
	assert.Equal(t, "10:30", updated.SurveyTime)
	assert.Equal(t, 1, updated.DealNumber)
	assert.InDelta(t, 800.0, updated.PaymentAmount, 1e-9, "payment amount is stamped once")

	_, err = f.engine.UpdateMilestones(ctx, seller, MilestoneUpdate{ProjectID: "set-1", GrossPricePerWatt: f64(-1)})
	assert.Equal(t, []string{errors.FieldMissingGrossPPW}, fieldCodes(t, err))
}

func TestAssignPayType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("seller cannot change own pay type", func(t *testing.T) {
		_, err := f.engine.AssignPayType(ctx, seller, PayTypeAssignment{SellerID: "seller-a", PayType: models.PayTypePro})
		assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthorized))

		profile, err := f.store.GetSeller(ctx, "seller-a")
		require.NoError(t, err)
		assert.Equal(t, models.PayTypeRookie, profile.PayType)
	})

	t.Run("manager updates existing profile", func(t *testing.T) {
		profile, err := f.engine.AssignPayType(ctx, manager, PayTypeAssignment{SellerID: "seller-a", PayType: models.PayTypeVet})
		require.NoError(t, err)
		assert.Equal(t, models.PayTypeVet, profile.PayType)
		assert.Equal(t, "Alex", profile.Name)
	})

	t.Run("admin creates profile", func(t *testing.T) {
		mt := models.ManagerTypeRegional
		team := "team-west"
		profile, err := f.engine.AssignPayType(ctx, admin, PayTypeAssignment{
			SellerID: "seller-new", Name: "Sam", PayType: models.PayTypePro, ManagerType: &mt, TeamID: &team,
		})
		require.NoError(t, err)
		assert.True(t, profile.IsManager())

		stored, err := f.store.GetSeller(ctx, "seller-new")
		require.NoError(t, err)
		assert.Equal(t, "team-west", stored.TeamID)
	})

	t.Run("unknown pay type", func(t *testing.T) {
		_, err := f.engine.AssignPayType(ctx, admin, PayTypeAssignment{SellerID: "seller-a", PayType: "Legend"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	})
}

// ==========================
// Summary Cache Tests
// ==========================

// cancellingStore cancels a project right after the report has read the
// owner's projects, before the report is written to the cache.
type cancellingStore struct {
	*repository.Store
	once   sync.Once
	cancel func()
}

func (s *cancellingStore) ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error) {
	projects, err := s.Store.ListProjects(ctx, ownerID)
	s.once.Do(s.cancel)
	return projects, err
}

func TestCancelProject_DuringSummaryBuildIsNotServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	install := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.PutProject(ctx, &models.Project{
		ID:         "p1",
		OwnerID:    "seller-a",
		Customer:   models.Customer{CustomerName: "Jane Doe"},
		Status:     models.ProjectStatusInstall,
		DealNumber: 1,
		Milestones: models.Milestones{InstallDate: &install},
	}))

	store := &cancellingStore{Store: f.store, cancel: func() {
		_, err := f.engine.CancelProject(ctx, seller, "p1")
		require.NoError(t, err)
	}}
	reports, err := aggregation.NewService(aggregation.ServiceOptions{Store: store, Cache: f.cache, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	before, err := reports.SellerSummary(ctx, seller, "seller-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, before.DealCount)

	after, err := reports.SellerSummary(ctx, seller, "seller-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, after.DealCount)
	assert.Zero(t, after.UpfrontPay)
}
