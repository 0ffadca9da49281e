package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vetclinic/internal/backend"
	"vetclinic/internal/entities"
	apperrors "vetclinic/internal/errors"
	"vetclinic/internal/utils"
)

func TestMain(m *testing.M) {
	utils.Logger = zap.NewNop()
	m.Run()
}

// captureWarnings swaps in an observing logger and returns the recorded
// entries, restoring the quiet logger when the test ends.
func captureWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = zap.NewNop() })
	return logs
}

type fakeCartBackend struct {
	cart []entities.CartLine

	getErr   error
	addErr   error
	clearErr error

	getCalls    int
	addCalls    int
	removeCalls int
	clearCalls  int
}

func (f *fakeCartBackend) GetCart(ctx context.Context, creds backend.Credentials, userID string) ([]entities.CartLine, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.cart, nil
}

func (f *fakeCartBackend) AddCartItem(ctx context.Context, creds backend.Credentials, userID, productID string, quantity int) error {
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	f.cart = append(f.cart, entities.CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

func (f *fakeCartBackend) RemoveCartItem(ctx context.Context, creds backend.Credentials, productID string) error {
	f.removeCalls++
	filtered := f.cart[:0]
	for _, l := range f.cart {
		if l.ProductID != productID {
			filtered = append(filtered, l)
		}
	}
	f.cart = filtered
	return nil
}

func (f *fakeCartBackend) ClearCart(ctx context.Context, creds backend.Credentials, userID string) error {
	f.clearCalls++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cart = nil
	return nil
}

type memMirror struct {
	lines map[string][]entities.CartLine

	loadErr error
	saveErr error
}

func newMemMirror() *memMirror {
	return &memMirror{lines: make(map[string][]entities.CartLine)}
}

func (m *memMirror) Load(ctx context.Context, sessionID string) ([]entities.CartLine, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.lines[sessionID], nil
}

func (m *memMirror) Save(ctx context.Context, sessionID, userID string, lines []entities.CartLine) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := make([]entities.CartLine, len(lines))
	copy(copied, lines)
	m.lines[sessionID] = copied
	return nil
}

func (m *memMirror) Clear(ctx context.Context, sessionID string) error {
	delete(m.lines, sessionID)
	return nil
}

func line(id string, price float64, qty int) entities.CartLine {
	return entities.CartLine{ProductID: id, UnitPrice: entities.NewPrice(price), Quantity: qty}
}

func TestAddItemLocalMode(t *testing.T) {
	backendFake := &fakeCartBackend{}
	svc := NewCartService(backendFake, newMemMirror())
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "s1", line("7", 10, 2)))

	lines := svc.Lines(ctx, "s1")
	require.Len(t, lines, 1)
	assert.Equal(t, "7", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, entities.CartModeLocal, svc.Mode("s1"))
	assert.Zero(t, backendFake.addCalls, "local mode must not touch the backend")
	assert.Zero(t, backendFake.getCalls)
}

func TestAddItemRejectsDuplicate(t *testing.T) {
	backendFake := &fakeCartBackend{}
	svc := NewCartService(backendFake, newMemMirror())
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "s1", line("7", 10, 1)))
	err := svc.AddItem(ctx, "s1", line("7", 10, 1))

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, svc.Lines(ctx, "s1"), 1)
}

func TestAddItemNormalizesIDBeforeDuplicateCheck(t *testing.T) {
	svc := NewCartService(&fakeCartBackend{}, newMemMirror())
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "s1", line("42", 5, 1)))
	err := svc.AddItem(ctx, "s1", line("  42 ", 5, 1))

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestRemoveItemLocalMode(t *testing.T) {
	svc := NewCartService(&fakeCartBackend{}, newMemMirror())
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "s1", line("1", 5, 1)))
	require.NoError(t, svc.AddItem(ctx, "s1", line("2", 5, 1)))
	require.NoError(t, svc.RemoveItem(ctx, "s1", " 1 "))

	lines := svc.Lines(ctx, "s1")
	require.Len(t, lines, 1)
	assert.Equal(t, "2", lines[0].ProductID)
}

func TestLocalCartHydratesFromMirror(t *testing.T) {
	mirror := newMemMirror()
	mirror.lines["s1"] = []entities.CartLine{line("9", 3, 1)}
	svc := NewCartService(&fakeCartBackend{}, mirror)

	lines := svc.Lines(context.Background(), "s1")
	require.Len(t, lines, 1)
	assert.Equal(t, "9", lines[0].ProductID)
}

func TestLoginReplacesLocalCart(t *testing.T) {
	backendFake := &fakeCartBackend{cart: []entities.CartLine{line("100", 20, 1)}}
	svc := NewCartService(backendFake, newMemMirror())
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "s1", line("7", 10, 1)))

	lines := svc.Login(ctx, "s1", "user-1", backend.Credentials{Token: "tok"})

	require.Len(t, lines, 1)
	assert.Equal(t, "100", lines[0].ProductID, "backend cart replaces local lines, no merge")
	assert.Equal(t, entities.CartModeSynced, svc.Mode("s1"))
}

func TestSyncedAddMutatesThenRefetches(t *testing.T) {
	backendFake := &fakeCartBackend{}
	svc := NewCartService(backendFake, newMemMirror())
	ctx := context.Background()

	svc.Login(ctx, "s1", "user-1", backend.Credentials{})
	getCallsAfterLogin := backendFake.getCalls

	require.NoError(t, svc.AddItem(ctx, "s1", line("5", 12, 1)))

	assert.Equal(t, 1, backendFake.addCalls)
	assert.Equal(t, getCallsAfterLogin+1, backendFake.getCalls, "every mutation re-fetches the authoritative cart")
}

func TestSyncedAddBackendFailureLeavesCartUntouched(t *testing.T) {
	backendFake := &fakeCartBackend{addErr: errors.New("boom")}
	svc := NewCartService(backendFake, newMemMirror())
	ctx := context.Background()

	svc.Login(ctx, "s1", "user-1", backend.Credentials{})
	err := svc.AddItem(ctx, "s1", line("5", 12, 1))

	require.Error(t, err)
	assert.Empty(t, svc.Lines(ctx, "s1"))
}

func TestSyncedFetchFailureFallsBackToMirror(t *testing.T) {
	logs := captureWarnings(t)

	mirror := newMemMirror()
	backendFake := &fakeCartBackend{cart: []entities.CartLine{line("100", 20, 1)}}
	svc := NewCartService(backendFake, mirror)
	ctx := context.Background()

	svc.Login(ctx, "s1", "user-1", backend.Credentials{})

	backendFake.getErr = errors.New("backend down")
	lines := svc.Lines(ctx, "s1")

	require.Len(t, lines, 1)
	assert.Equal(t, "100", lines[0].ProductID, "mirror keeps the last-known-good cart")
	assert.NotZero(t, logs.Len())
}

func TestLogoutClearsCartAndMirror(t *testing.T) {
	mirror := newMemMirror()
	backendFake := &fakeCartBackend{cart: []entities.CartLine{line("100", 20, 1)}}
	svc := NewCartService(backendFake, mirror)
	ctx := context.Background()

	svc.Login(ctx, "s1", "user-1", backend.Credentials{})
	svc.Logout(ctx, "s1")

	assert.Equal(t, entities.CartModeLocal, svc.Mode("s1"))
	assert.Empty(t, svc.Lines(ctx, "s1"))
	assert.Empty(t, mirror.lines["s1"])
}

func TestClearSyncedModeFailsClosed(t *testing.T) {
	backendFake := &fakeCartBackend{
		cart:     []entities.CartLine{line("100", 20, 1)},
		clearErr: errors.New("boom"),
	}
	svc := NewCartService(backendFake, newMemMirror())
	ctx := context.Background()

	svc.Login(ctx, "s1", "user-1", backend.Credentials{})
	err := svc.Clear(ctx, "s1")

	require.Error(t, err)
	assert.Len(t, svc.Lines(ctx, "s1"), 1, "cart survives when the backend clear failed")
}

func TestClearAfterCheckoutOnlyTouchesGatewayState(t *testing.T) {
	mirror := newMemMirror()
	backendFake := &fakeCartBackend{}
	svc := NewCartService(backendFake, mirror)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "s1", line("1", 5, 1)))
	svc.ClearAfterCheckout(ctx, "s1")

	assert.Empty(t, svc.Lines(ctx, "s1"))
	assert.Zero(t, backendFake.clearCalls)
}

func TestSummaryTotalsAndCounts(t *testing.T) {
	svc := NewCartService(&fakeCartBackend{}, newMemMirror())

	lines := []entities.CartLine{
		line("1", 10.50, 2),
		line("2", 4, 1),
	}
	summary := svc.Summary(lines)

	assert.InDelta(t, 25.0, summary.Total, 0.0001)
	assert.Equal(t, 2, summary.Count)
}

func TestSummaryCountsInvalidPriceAsZeroWithWarning(t *testing.T) {
	logs := captureWarnings(t)
	svc := NewCartService(&fakeCartBackend{}, newMemMirror())

	bad := entities.CartLine{ProductID: "bad", Quantity: 3}
	summary := svc.Summary([]entities.CartLine{line("1", 10, 1), bad})

	assert.InDelta(t, 10.0, summary.Total, 0.0001)
	assert.Equal(t, 2, summary.Count, "the unpriced line still counts as an item")
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "non-numeric price")
}
