package convertset

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"deal-workers/internal/commission"
	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/lifecycle"
	"deal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Engine Implementation
// ==========================

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) ConvertSet(ctx context.Context, actor auth.Actor, req lifecycle.ConvertRequest) (*lifecycle.ConvertResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.ConvertResult), args.Error(1)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "test-process",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_ConvertSet",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

// ==========================
// Test Helpers
// ==========================

func f64(v float64) *float64 { return &v }

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"actorId":           "seller-a",
		"actorRole":         "seller",
		"setId":             "set-1",
		"verified":          true,
		"systemSizeKw":      4.0,
		"grossPricePerWatt": 7.14,
		"adders":            map[string]interface{}{"eaBattery": true, "mpu": true},
		"surveyDate":        "2026-10-20",
		"surveyTime":        "10:30",
	}
}

func newTestHandler(t *testing.T, engine Engine) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Engine:       engine,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockEngine))

	input, err := h.parseInput(createMockJob(1, validVariables()))
	require.NoError(t, err)
	assert.Equal(t, "set-1", input.SetID)
	assert.True(t, input.Verified)
	require.NotNil(t, input.SystemSizeKw)
	assert.Equal(t, 4.0, *input.SystemSizeKw)
	assert.True(t, input.Adders.EABattery)
	assert.False(t, input.Adders.Reroof)
	assert.Equal(t, "2026-10-20", input.SurveyDate)
}

func TestHandler_ParseInput_MissingPricingIsNotASchemaError(t *testing.T) {
	h := newTestHandler(t, new(MockEngine))
	vars := map[string]interface{}{
		"actorId": "seller-a", "actorRole": "seller",
		"setId": "set-1", "systemSizeKw": nil,
	}

	input, err := h.parseInput(createMockJob(1, vars))

	require.NoError(t, err)
	assert.Nil(t, input.SystemSizeKw)
	assert.Nil(t, input.GrossPricePerWatt)
}

func TestHandler_ParseInput_SchemaErrors(t *testing.T) {
	h := newTestHandler(t, new(MockEngine))

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"bad survey date", func(v map[string]interface{}) { v["surveyDate"] = "20/10/2026" }, "surveyDate"},
		{"size as string", func(v map[string]interface{}) { v["systemSizeKw"] = "4kW" }, "systemSizeKw"},
		{"adder not boolean", func(v map[string]interface{}) { v["adders"] = map[string]interface{}{"mpu": "yes"} }, "adders.mpu"},
		{"missing set id", func(v map[string]interface{}) { delete(v, "setId") }, "setId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := validVariables()
			tt.mutate(vars)

			_, err := h.parseInput(createMockJob(1, vars))

			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			var fields []string
			for _, f := range stdErr.Fields() {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	engine := new(MockEngine)
	paymentDate := time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC)

	var got lifecycle.ConvertRequest
	engine.On("ConvertSet", mock.Anything, auth.Actor{ID: "seller-a", Role: auth.RoleSeller}, mock.AnythingOfType("lifecycle.ConvertRequest")).
		Run(func(args mock.Arguments) { got = args.Get(2).(lifecycle.ConvertRequest) }).
		Return(&lifecycle.ConvertResult{
			Project: &models.Project{
				ID:            "set-1",
				OwnerID:       "seller-a",
				Status:        models.ProjectStatusSiteSurvey,
				DealNumber:    3,
				PaymentAmount: 800,
				Milestones:    models.Milestones{PaymentDate: &paymentDate},
			},
			Tier:       commission.ResolveTier(3),
			UpfrontPay: 300,
		}, nil)

	h := newTestHandler(t, engine)
	input, err := h.parseInput(createMockJob(1, validVariables()))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "set-1", got.SetID)
	require.NotNil(t, got.SurveyDate)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), *got.SurveyDate)
	assert.Nil(t, got.PaymentDate)
	assert.True(t, got.Adders.MPU)

	assert.Equal(t, "set-1", out.ProjectID)
	assert.Equal(t, 3, out.DealNumber)
	assert.Equal(t, 1, out.TierLevel)
	assert.Equal(t, 200.0, out.TierRatePerKw)
	assert.Equal(t, 800.0, out.PaymentAmount)
	assert.Equal(t, "2026-10-23", out.PaymentDate)
	assert.Equal(t, 300.0, out.UpfrontPay)
	assert.False(t, out.Resumed)
	engine.AssertExpectations(t)
}

func TestHandler_Execute_PassesValidationFailureThrough(t *testing.T) {
	engine := new(MockEngine)
	missing := errors.NewValidationFailedError([]errors.FieldError{
		{Field: "systemSizeKw", Code: errors.FieldMissingSystemSize},
		{Field: "surveyDate", Code: errors.FieldMissingSurveyDate},
	})
	engine.On("ConvertSet", mock.Anything, mock.Anything, mock.Anything).Return(nil, missing)

	h := newTestHandler(t, engine)
	_, err := h.Execute(context.Background(), &Input{
		JobActor: auth.JobActor{ActorID: "seller-a", ActorRole: "seller"},
		SetID:    "set-1",
	})

	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Len(t, stdErr.Fields(), 2)
}

func TestHandler_Execute_RejectsBadDates(t *testing.T) {
	h := newTestHandler(t, new(MockEngine))

	_, err := h.Execute(context.Background(), &Input{
		JobActor:    auth.JobActor{ActorID: "seller-a", ActorRole: "seller"},
		SetID:       "set-1",
		PaymentDate: "2026-13-45",
	})

	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestHandler_Execute_ResumedConversion(t *testing.T) {
	engine := new(MockEngine)
	engine.On("ConvertSet", mock.Anything, mock.Anything, mock.Anything).Return(&lifecycle.ConvertResult{
		Project: &models.Project{ID: "set-1", Status: models.ProjectStatusSiteSurvey, DealNumber: 21},
		Tier:    commission.ResolveTier(21),
		Resumed: true,
	}, nil)

	h := newTestHandler(t, engine)
	out, err := h.Execute(context.Background(), &Input{
		JobActor: auth.JobActor{ActorID: "admin", ActorRole: "admin"},
		SetID:    "set-1",
	})

	require.NoError(t, err)
	assert.True(t, out.Resumed)
	assert.Equal(t, 3, out.TierLevel)
	assert.Empty(t, out.PaymentDate)
}

func TestNewHandler_RequiresEngine(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.ErrorContains(t, err, "lifecycle engine is required")
}
