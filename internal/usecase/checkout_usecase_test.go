package usecase

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"oms/internal/domain/model"
	repo "oms/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// モック（testify/mock）
// =====================

type userDirMock struct{ mock.Mock }

func (m *userDirMock) FindByEmail(ctx context.Context, email string) (model.User, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Bool(1), args.Error(2)
}

func (m *userDirMock) Create(ctx context.Context, u model.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *userDirMock) Update(ctx context.Context, userID string, fields map[string]any) error {
	args := m.Called(ctx, userID, fields)
	return args.Error(0)
}

type addressBookMock struct{ mock.Mock }

func (m *addressBookMock) Create(ctx context.Context, a model.Address) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

type orderBookMock struct {
	mock.Mock
	mu      sync.Mutex
	created []model.Order
}

func (m *orderBookMock) Get(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *orderBookMock) Create(ctx context.Context, o model.Order) (string, error) {
	args := m.Called(ctx, o)
	if args.Error(1) == nil {
		m.mu.Lock()
		m.created = append(m.created, o)
		m.mu.Unlock()
	}
	return args.String(0), args.Error(1)
}

func (m *orderBookMock) ListByUser(ctx context.Context, userID string, limit int, offset int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

type lastOrderRepoMock struct{ mock.Mock }

func (m *lastOrderRepoMock) Save(ctx context.Context, key string, lo repo.LastOrder) error {
	args := m.Called(ctx, key, lo)
	return args.Error(0)
}

func (m *lastOrderRepoMock) Find(ctx context.Context, key string) (repo.LastOrder, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(repo.LastOrder), args.Error(1)
}

type idemStoreMock struct{ mock.Mock }

func (m *idemStoreMock) TryLock(ctx context.Context, scope string, key string) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *idemStoreMock) Unlock(ctx context.Context, scope string, key string) error {
	args := m.Called(ctx, scope, key)
	return args.Error(0)
}

func (m *idemStoreMock) Remember(ctx context.Context, scope string, key string, value string) error {
	args := m.Called(ctx, scope, key, value)
	return args.Error(0)
}

func (m *idemStoreMock) Recall(ctx context.Context, scope string, key string) (string, bool, error) {
	args := m.Called(ctx, scope, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

// 検証は実パッケージをimportすると循環するのでスタブで代える
type validatorStub struct{ err error }

func (v *validatorStub) ValidateContact(c model.Contact) error { return v.err }

// =====================
// フィクスチャ
// =====================

type checkoutFixture struct {
	uc         *CheckoutUsecase
	carts      *CartUsecase
	users      *userDirMock
	addresses  *addressBookMock
	orders     *orderBookMock
	mirror     *mirrorStub
	lastOrders *lastOrderRepoMock
}

func newCheckoutFixture(idem IdempotencyStore) *checkoutFixture {
	f := &checkoutFixture{
		users:      &userDirMock{},
		addresses:  &addressBookMock{},
		orders:     &orderBookMock{},
		mirror:     &mirrorStub{exists: true},
		lastOrders: &lastOrderRepoMock{},
	}
	clock := &fixedClock{t: time.UnixMilli(1700000012345)}
	f.carts = NewCartUsecase(newCartSnapshotFake(), nil, &seqIDGen{}, clock, discardLogger())
	f.uc = NewCheckoutUsecase(
		f.carts, f.users, f.addresses, f.orders, f.mirror, f.lastOrders,
		&validatorStub{}, idem, clock, discardLogger(),
	)
	return f
}

func (f *checkoutFixture) seedCart(t *testing.T) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), model.Product{SKU: "A", Name: "Widget", Price: 10}, 2)
	assert.NoError(t, err)
}

func (f *checkoutFixture) happyPathMocks(userID string, found bool) {
	user := model.User{}
	if found {
		user = model.User{UserID: userID, Email: "taro@example.com"}
	}
	f.users.On("FindByEmail", mock.Anything, "taro@example.com").Return(user, found, nil)
	if found {
		f.users.On("Update", mock.Anything, userID, mock.Anything).Return(nil)
	} else {
		f.users.On("Create", mock.Anything, mock.Anything).Return(userID, nil)
	}
	f.addresses.On("Create", mock.Anything, mock.Anything).Return("addr_1", nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return("ord_1", nil)
	f.lastOrders.On("Save", mock.Anything, repo.DefaultStorageKey, mock.Anything).Return(nil)
}

func validContact() model.Contact {
	return model.Contact{
		Name:  "Taro Yamada",
		Email: "taro@example.com",
		Phone: "08012345678",
		Address: model.ContactAddress{
			Line1:    "1-2-3 Chuo",
			City:     "Tokyo",
			Postcode: "100-0001",
			Country:  "JP",
		},
	}
}

// =====================
// テスト本体
// =====================

func TestCheckout_ExistingUser_UpdatedNotDuplicated(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.happyPathMocks("u_1", true)

	out, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assert.NoError(t, err)
	assert.Equal(t, "ord_1", out.OrderID)

	f.users.AssertNumberOfCalls(t, "Update", 1)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// 注文スナップショットの内容
	assert.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, "u_1", order.UserID)
	assert.Equal(t, "addr_1", order.ShippingAddressID)
	assert.Equal(t, model.OrderStatusWaitingToFulfill, order.Status)
	assert.Len(t, order.Lines, 1)
	assert.Equal(t, float64(20), order.Totals.Items)
	assert.Equal(t, float64(20), order.Totals.Grand)
	assert.Regexp(t, `^CY\d{8}$`, order.OrderNumber)

	// カート確定：リモートはCONVERTED、ローカルはクリア
	assert.Len(t, f.mirror.updates, 1)
	assert.Equal(t, model.CartStatusConverted, f.mirror.updates[0]["status"])
	_, ok := f.carts.GetCart(context.Background())
	assert.False(t, ok)

	f.lastOrders.AssertNumberOfCalls(t, "Save", 1)
}

func TestCheckout_NovelEmail_CreatesUser(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.happyPathMocks("u_new", false)

	out, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assert.NoError(t, err)
	assert.Equal(t, "ord_1", out.OrderID)

	f.users.AssertNumberOfCalls(t, "Create", 1)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, "u_new", f.orders.created[0].UserID)
}

func TestCheckout_UserStepFails_NothingElseRuns(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(model.User{}, false, assert.AnError)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assertErrContains(t, err, "failed to process user information")

	f.addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// カートはCHECKING_OUTのまま残り、再試行できる
	cart, ok := f.carts.GetCart(context.Background())
	assert.True(t, ok)
	assert.Equal(t, model.CartStatusCheckingOut, cart.Status)
}

func TestCheckout_AddressStepFails_UserOrphanRemains(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(model.User{}, false, nil)
	f.users.On("Create", mock.Anything, mock.Anything).Return("u_new", nil)
	f.addresses.On("Create", mock.Anything, mock.Anything).Return("", assert.AnError)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assertErrContains(t, err, "failed to create shipping address")

	// 巻き戻しはしない。作成済みユーザーはリモートに残る。
	f.users.AssertNumberOfCalls(t, "Create", 1)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	cart, _ := f.carts.GetCart(context.Background())
	assert.Equal(t, model.CartStatusCheckingOut, cart.Status)
}

func TestCheckout_OrderStepFails(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(model.User{}, false, nil)
	f.users.On("Create", mock.Anything, mock.Anything).Return("u_new", nil)
	f.addresses.On("Create", mock.Anything, mock.Anything).Return("addr_1", nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return("", assert.AnError)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assertErrContains(t, err, "failed to create order")

	assert.Empty(t, f.mirror.updates)
	cart, _ := f.carts.GetCart(context.Background())
	assert.Equal(t, model.CartStatusCheckingOut, cart.Status)
}

func TestCheckout_FinalizeFails_OrderAlreadyPlaced(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.happyPathMocks("u_1", true)
	f.mirror.updateErr = assert.AnError

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assertErrContains(t, err, "failed to finalize cart")

	// 注文は既に存在するがローカルカートはクリアされない
	assert.Len(t, f.orders.created, 1)
	cart, ok := f.carts.GetCart(context.Background())
	assert.True(t, ok)
	assert.Equal(t, model.CartStatusCheckingOut, cart.Status)
	f.lastOrders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	f := newCheckoutFixture(nil)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})

	httpErr, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "cart empty", httpErr.Message)
}

func TestCheckout_InvalidContact_NoRemoteCalls(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.seedCart(t)
	f.uc.validator = &validatorStub{err: assert.AnError}

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: model.Contact{}})

	httpErr, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestCheckout_DuplicateIdempotencyKey_ReturnsExistingOrder(t *testing.T) {
	idem := &idemStoreMock{}
	f := newCheckoutFixture(idem)
	f.seedCart(t)

	existing := model.Order{OrderID: "ord_9", OrderNumber: "CY00012345"}
	idem.On("Recall", mock.Anything, "checkout", "key-1").Return("ord_9", true, nil)
	f.orders.On("Get", mock.Anything, "ord_9").Return(existing, nil)

	out, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{
		Contact:        validContact(),
		IdempotencyKey: "key-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "ord_9", out.OrderID)
	assert.Equal(t, "CY00012345", out.OrderNumber)

	f.users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	idem.AssertNotCalled(t, "TryLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_ConcurrentSameKey_Conflict(t *testing.T) {
	idem := &idemStoreMock{}
	f := newCheckoutFixture(idem)
	f.seedCart(t)

	idem.On("Recall", mock.Anything, "checkout", "key-1").Return("", false, nil)
	idem.On("TryLock", mock.Anything, "checkout", "key-1").Return(false, nil)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{
		Contact:        validContact(),
		IdempotencyKey: "key-1",
	})

	httpErr, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "checkout already in progress", httpErr.Message)
}

func TestCheckout_FailedAttempt_ReleasesIdempotencyLock(t *testing.T) {
	idem := &idemStoreMock{}
	f := newCheckoutFixture(idem)
	f.seedCart(t)

	idem.On("Recall", mock.Anything, "checkout", "key-1").Return("", false, nil)
	idem.On("TryLock", mock.Anything, "checkout", "key-1").Return(true, nil)
	idem.On("Unlock", mock.Anything, "checkout", "key-1").Return(nil)
	f.users.On("FindByEmail", mock.Anything, mock.Anything).Return(model.User{}, false, assert.AnError)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{
		Contact:        validContact(),
		IdempotencyKey: "key-1",
	})
	assertErrContains(t, err, "failed to process user information")

	// ロックは解放され、同じキーで再試行できる
	idem.AssertNumberOfCalls(t, "Unlock", 1)
	idem.AssertNotCalled(t, "Remember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_Success_KeepsIdempotencyLock(t *testing.T) {
	idem := &idemStoreMock{}
	f := newCheckoutFixture(idem)
	f.seedCart(t)
	f.happyPathMocks("u_1", true)

	idem.On("Recall", mock.Anything, "checkout", "key-1").Return("", false, nil)
	idem.On("TryLock", mock.Anything, "checkout", "key-1").Return(true, nil)
	idem.On("Remember", mock.Anything, "checkout", "key-1", "ord_1").Return(nil)

	_, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{
		Contact:        validContact(),
		IdempotencyKey: "key-1",
	})
	assert.NoError(t, err)

	idem.AssertNumberOfCalls(t, "Remember", 1)
	idem.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_OrderNumbersMonotonicInProcess(t *testing.T) {
	f := newCheckoutFixture(nil)
	f.happyPathMocks("u_1", true)

	// 時計は固定。同一ミリ秒でも番号は単調増加する。
	f.seedCart(t)
	out1, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assert.NoError(t, err)

	f.seedCart(t)
	out2, err := f.uc.PlaceOrder(context.Background(), CheckoutInput{Contact: validContact()})
	assert.NoError(t, err)

	assert.Regexp(t, `^CY\d{8}$`, out1.OrderNumber)
	assert.Regexp(t, `^CY\d{8}$`, out2.OrderNumber)
	assert.Greater(t, out2.OrderNumber, out1.OrderNumber)
}
