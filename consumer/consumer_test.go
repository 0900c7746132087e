package consumer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderCreator struct {
	mock.Mock
}

func (m *mockOrderCreator) CreateOrder(ctx context.Context, evt models.CheckoutEvent) (*models.Order, *services.ServiceError) {
	args := m.Called(ctx, evt)
	order, _ := args.Get(0).(*models.Order)
	serr, _ := args.Get(1).(*services.ServiceError)
	return order, serr
}

type mockCheckoutGuard struct {
	mock.Mock
}

func (m *mockCheckoutGuard) Claim(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockCheckoutGuard) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockStatusUpdater struct {
	mock.Mock
}

func (m *mockStatusUpdater) UpdateStatus(ctx context.Context, cmd services.UpdateStatusCommand) (*services.TransitionResult, *services.ServiceError) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(*services.TransitionResult)
	serr, _ := args.Get(1).(*services.ServiceError)
	return res, serr
}

func TestCheckoutHandler_CreatesOrder(t *testing.T) {
	creator := &mockOrderCreator{}
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(e models.CheckoutEvent) bool {
		return e.FarmID == "f1" && len(e.Items) == 1
	})).Return(&models.Order{ID: uuid.New(), OrderNumber: "FD-1"}, nil)

	h := NewCheckoutHandler(creator, nil, zap.NewNop())
	err := h(context.Background(), []byte(`{"event":"checkout.completed","farm_id":"f1","items":[{"product_name":"Eggs","unit_price":300,"quantity":1}]}`))
	require.NoError(t, err)
	creator.AssertExpectations(t)
}

func TestCheckoutHandler_MalformedIsPoison(t *testing.T) {
	h := NewCheckoutHandler(&mockOrderCreator{}, nil, zap.NewNop())
	err := h(context.Background(), []byte(`{not json`))
	assert.ErrorIs(t, err, awspkg.ErrPoisonMessage)
}

func TestCheckoutHandler_IgnoresOtherEvents(t *testing.T) {
	creator := &mockOrderCreator{}
	h := NewCheckoutHandler(creator, nil, zap.NewNop())
	require.NoError(t, h(context.Background(), []byte(`{"event":"cart.updated"}`)))
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCheckoutHandler_ValidationIsPoisonStoreErrorRetries(t *testing.T) {
	creator := &mockOrderCreator{}
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(e models.CheckoutEvent) bool { return e.FarmID == "bad" })).
		Return(nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "At least one item is required"})
	creator.On("CreateOrder", mock.Anything, mock.MatchedBy(func(e models.CheckoutEvent) bool { return e.FarmID == "down" })).
		Return(nil, &services.ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create order"})

	h := NewCheckoutHandler(creator, nil, zap.NewNop())

	err := h(context.Background(), []byte(`{"farm_id":"bad"}`))
	assert.ErrorIs(t, err, awspkg.ErrPoisonMessage)

	err = h(context.Background(), []byte(`{"farm_id":"down"}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, awspkg.ErrPoisonMessage))
}

func TestCheckoutHandler_DuplicateSkipped(t *testing.T) {
	creator := &mockOrderCreator{}
	guard := &mockCheckoutGuard{}
	guard.On("Claim", mock.Anything, "chk_9").Return(false, nil)

	h := NewCheckoutHandler(creator, guard, zap.NewNop())
	require.NoError(t, h(context.Background(), []byte(`{"checkout_id":"chk_9","farm_id":"f1"}`)))
	creator.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	guard.AssertExpectations(t)
}

func TestCheckoutHandler_RetryableFailureReleasesClaim(t *testing.T) {
	creator := &mockOrderCreator{}
	creator.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &services.ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create order"})
	guard := &mockCheckoutGuard{}
	guard.On("Claim", mock.Anything, "chk_10").Return(true, nil)
	guard.On("Release", mock.Anything, "chk_10").Return(nil)

	h := NewCheckoutHandler(creator, guard, zap.NewNop())
	err := h(context.Background(), []byte(`{"checkout_id":"chk_10","farm_id":"f1"}`))
	require.Error(t, err)
	guard.AssertExpectations(t)
}

func TestCheckoutHandler_GuardErrorStillCreates(t *testing.T) {
	creator := &mockOrderCreator{}
	creator.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.Order{ID: uuid.New(), OrderNumber: "FD-2"}, nil)
	guard := &mockCheckoutGuard{}
	guard.On("Claim", mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

	h := NewCheckoutHandler(creator, guard, zap.NewNop())
	require.NoError(t, h(context.Background(), []byte(`{"farm_id":"f1"}`)))
	creator.AssertExpectations(t)
	guard.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestCheckoutKey_FallsBackToBodyDigest(t *testing.T) {
	body := []byte(`{"farm_id":"f1"}`)
	a := checkoutKey(models.CheckoutEvent{}, body)
	b := checkoutKey(models.CheckoutEvent{}, body)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Equal(t, "chk_1", checkoutKey(models.CheckoutEvent{CheckoutID: "chk_1"}, body))
}

func TestDeliveryHandler_UsesSystemActor(t *testing.T) {
	orderID := uuid.New()
	updater := &mockStatusUpdater{}
	updater.On("UpdateStatus", mock.Anything, services.UpdateStatusCommand{
		Actor:   services.SystemActor,
		OrderID: orderID,
		Status:  "delivered",
		Note:    "Left with neighbour",
	}).Return(&services.TransitionResult{StatusChanged: true}, nil)

	h := NewDeliveryHandler(updater, zap.NewNop())
	err := h(context.Background(), []byte(`{"order_id":"`+orderID.String()+`","status":"delivered","note":"Left with neighbour"}`))
	require.NoError(t, err)
	updater.AssertExpectations(t)
}

func TestDeliveryHandler_BadOrderID(t *testing.T) {
	h := NewDeliveryHandler(&mockStatusUpdater{}, zap.NewNop())
	err := h(context.Background(), []byte(`{"order_id":"123","status":"delivered"}`))
	assert.ErrorIs(t, err, awspkg.ErrPoisonMessage)
}

func TestDeliveryHandler_RejectedTransitionDropped(t *testing.T) {
	updater := &mockStatusUpdater{}
	updater.On("UpdateStatus", mock.Anything, mock.Anything).
		Return(nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Code: services.CodeInvalidTransition, Message: "Cannot change status"})

	h := NewDeliveryHandler(updater, zap.NewNop())
	err := h(context.Background(), []byte(`{"order_id":"`+uuid.NewString()+`","status":"processing"}`))
	assert.ErrorIs(t, err, awspkg.ErrPoisonMessage)
}
