package service

import (
	"context"
	"sync"

	"vetclinic/internal/backend"
	"vetclinic/internal/entities"
	apperrors "vetclinic/internal/errors"
	"vetclinic/internal/utils"
)

// CartBackend is the slice of the clinic backend the cart engine uses.
type CartBackend interface {
	GetCart(ctx context.Context, creds backend.Credentials, userID string) ([]entities.CartLine, error)
	AddCartItem(ctx context.Context, creds backend.Credentials, userID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, creds backend.Credentials, productID string) error
	ClearCart(ctx context.Context, creds backend.Credentials, userID string) error
}

// MirrorStore is the local-storage analogue: one serialized line set per
// session, written only by the cart engine.
type MirrorStore interface {
	Load(ctx context.Context, sessionID string) ([]entities.CartLine, error)
	Save(ctx context.Context, sessionID, userID string, lines []entities.CartLine) error
	Clear(ctx context.Context, sessionID string) error
}

// CartService keeps a single authoritative view of each visitor's cart across
// the anonymous (local) and authenticated (backend-synced) modes. In synced
// mode it never predicts state: every mutation round-trips to the backend and
// then re-fetches the authoritative cart.
type CartService struct {
	Backend CartBackend
	Mirror  MirrorStore

	mu    sync.Mutex
	carts map[string]*cartState
}

// cartState is one session's cart. Its mutex serializes mutating operations
// for the session, covering the backend call and the follow-up re-fetch, so
// two rapid mutations cannot interleave their responses.
type cartState struct {
	mu       sync.Mutex
	mode     entities.CartMode
	userID   string
	creds    backend.Credentials
	lines    []entities.CartLine
	hydrated bool
}

func NewCartService(backendClient CartBackend, mirror MirrorStore) *CartService {
	return &CartService{
		Backend: backendClient,
		Mirror:  mirror,
		carts:   make(map[string]*cartState),
	}
}

func (s *CartService) state(sessionID string) *cartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.carts[sessionID]
	if !ok {
		st = &cartState{mode: entities.CartModeLocal}
		s.carts[sessionID] = st
	}
	return st
}

// hydrateLocked restores a local cart from its mirror, so an anonymous
// visitor's cart survives a gateway restart the way local storage survives a
// page reload.
func (s *CartService) hydrateLocked(ctx context.Context, sessionID string, st *cartState) {
	if st.hydrated {
		return
	}
	st.hydrated = true
	if st.mode != entities.CartModeLocal {
		return
	}
	lines, err := s.Mirror.Load(ctx, sessionID)
	if err != nil {
		utils.Sugar().Warnf("Could not hydrate cart mirror for session %s: %v", sessionID, err)
		return
	}
	st.lines = lines
}

// refreshLocked replaces the in-memory lines with the backend's authoritative
// cart and mirrors the result. On fetch failure the mirror is the last-known-
// good fallback; the cart never degrades to empty just because a read failed.
func (s *CartService) refreshLocked(ctx context.Context, sessionID string, st *cartState) []entities.CartLine {
	lines, err := s.Backend.GetCart(ctx, st.creds, st.userID)
	if err != nil {
		utils.Sugar().Warnf("Cart fetch failed for user %s, falling back to cached mirror: %v", st.userID, err)
		cached, cacheErr := s.Mirror.Load(ctx, sessionID)
		if cacheErr != nil {
			utils.Sugar().Warnf("Cart mirror read failed for session %s: %v", sessionID, cacheErr)
			return st.lines
		}
		if cached != nil {
			st.lines = cached
		}
		return st.lines
	}

	st.lines = lines
	if err := s.Mirror.Save(ctx, sessionID, st.userID, lines); err != nil {
		utils.Sugar().Warnf("Cart mirror write failed for session %s: %v", sessionID, err)
	}
	return st.lines
}

// Login switches the session to synced mode. The backend-owned cart replaces
// whatever was held locally; lines added before login are not merged.
func (s *CartService) Login(ctx context.Context, sessionID, userID string, creds backend.Credentials) []entities.CartLine {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.mode = entities.CartModeSynced
	st.userID = userID
	st.creds = creds
	st.lines = nil
	st.hydrated = true
	return s.refreshLocked(ctx, sessionID, st)
}

// Logout returns the session to local mode with an empty cart. The mirror is
// cleared too so the synced cache cannot leak into an anonymous session.
func (s *CartService) Logout(ctx context.Context, sessionID string) {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.mode = entities.CartModeLocal
	st.userID = ""
	st.creds = backend.Credentials{}
	st.lines = nil
	st.hydrated = true
	if err := s.Mirror.Clear(ctx, sessionID); err != nil {
		utils.Sugar().Warnf("Cart mirror clear failed for session %s: %v", sessionID, err)
	}
}

// AddItem puts a product in the cart. A product that is already present is
// rejected before any backend call; the cart holds at most one line per
// product id no matter how often it is added.
func (s *CartService) AddItem(ctx context.Context, sessionID string, line entities.CartLine) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.hydrateLocked(ctx, sessionID, st)

	line.ProductID = utils.NormalizeID(line.ProductID)
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	for _, existing := range st.lines {
		if utils.SameID(existing.ProductID, line.ProductID) {
			return apperrors.NewValidationError("Product is already in the cart")
		}
	}

	if st.mode == entities.CartModeSynced {
		if err := s.Backend.AddCartItem(ctx, st.creds, st.userID, line.ProductID, line.Quantity); err != nil {
			// No local fallback: inserting locally here would silently
			// desynchronize from the backend's authoritative copy.
			return err
		}
		s.refreshLocked(ctx, sessionID, st)
		return nil
	}

	st.lines = append(st.lines, line)
	if err := s.Mirror.Save(ctx, sessionID, "", st.lines); err != nil {
		utils.Sugar().Warnf("Cart mirror write failed for session %s: %v", sessionID, err)
	}
	return nil
}

// RemoveItem drops the line matching the string-normalized product id.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.hydrateLocked(ctx, sessionID, st)

	productID = utils.NormalizeID(productID)

	if st.mode == entities.CartModeSynced {
		if err := s.Backend.RemoveCartItem(ctx, st.creds, productID); err != nil {
			return err
		}
		s.refreshLocked(ctx, sessionID, st)
		return nil
	}

	filtered := make([]entities.CartLine, 0, len(st.lines))
	for _, l := range st.lines {
		if !utils.SameID(l.ProductID, productID) {
			filtered = append(filtered, l)
		}
	}
	st.lines = filtered
	if err := s.Mirror.Save(ctx, sessionID, "", st.lines); err != nil {
		utils.Sugar().Warnf("Cart mirror write failed for session %s: %v", sessionID, err)
	}
	return nil
}

// Clear empties the cart. In synced mode the backend is cleared first; the
// mirror is wiped unconditionally as the final step.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.hydrateLocked(ctx, sessionID, st)

	if st.mode == entities.CartModeSynced {
		if err := s.Backend.ClearCart(ctx, st.creds, st.userID); err != nil {
			return err
		}
	}

	st.lines = nil
	if err := s.Mirror.Clear(ctx, sessionID); err != nil {
		utils.Sugar().Warnf("Cart mirror clear failed for session %s: %v", sessionID, err)
	}
	return nil
}

// ClearAfterCheckout wipes the gateway-held cart once a payment completed.
// The backend empties its own copy when it records the order, so only the
// local view and the mirror are touched here.
func (s *CartService) ClearAfterCheckout(ctx context.Context, sessionID string) {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.lines = nil
	st.hydrated = true
	if err := s.Mirror.Clear(ctx, sessionID); err != nil {
		utils.Sugar().Warnf("Cart mirror clear failed for session %s: %v", sessionID, err)
	}
}

// Lines returns the current cart. In synced mode the backend stays the source
// of truth on every read; a failed fetch degrades to the cached mirror rather
// than an empty cart.
func (s *CartService) Lines(ctx context.Context, sessionID string) []entities.CartLine {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.hydrateLocked(ctx, sessionID, st)

	if st.mode == entities.CartModeSynced {
		return s.refreshLocked(ctx, sessionID, st)
	}
	return st.lines
}

func (s *CartService) Mode(sessionID string) entities.CartMode {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.mode
}

// Summary totals the cart as price times quantity per line. A line whose
// price did not parse as a number counts as zero with a logged warning,
// never an error.
func (s *CartService) Summary(lines []entities.CartLine) entities.CartSummary {
	var total float64
	for _, line := range lines {
		if !line.UnitPrice.Valid {
			utils.Sugar().Warnf("Cart line %q has a non-numeric price, counting it as 0", line.ProductID)
			continue
		}
		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}
		total += line.UnitPrice.Amount * float64(quantity)
	}
	return entities.CartSummary{Total: total, Count: len(lines)}
}
