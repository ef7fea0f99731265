package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nino-0813/honma-ec-sub000/pkg/redis"
)

// Store persists carts in Redis keyed by a session token (guest carts) or
// the authenticated user id. Carts expire after the configured TTL of
// inactivity.
type Store struct {
	kv  redis.KV
	ttl time.Duration
}

func NewStore(kv redis.KV, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Load returns the cart for the token, or an empty cart when none exists.
func (s *Store) Load(ctx context.Context, token string) (*Cart, error) {
	if token == "" {
		return nil, fmt.Errorf("cart token required")
	}
	raw, err := s.kv.Get(ctx, s.kv.CartKey(token))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return &Cart{}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		// A corrupt session blob is not worth failing checkout over.
		return &Cart{}, nil
	}
	return &cart, nil
}

// Save writes the cart back, refreshing its TTL.
func (s *Store) Save(ctx context.Context, token string, cart *Cart) error {
	if token == "" {
		return fmt.Errorf("cart token required")
	}
	if cart == nil {
		cart = &Cart{}
	}
	cart.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(token), string(raw), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear drops the cart and any cached payment intent for the session.
func (s *Store) Clear(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("cart token required")
	}
	return s.kv.Del(ctx, s.kv.CartKey(token), s.kv.IntentKey(token))
}

// Restore merges a guest cart into the signed-in user's cart after
// authentication and discards the guest session. The merged cart is
// returned and already persisted under the user token.
func (s *Store) Restore(ctx context.Context, guestToken, userToken string) (*Cart, error) {
	if userToken == "" {
		return nil, fmt.Errorf("user token required")
	}
	userCart, err := s.Load(ctx, userToken)
	if err != nil {
		return nil, err
	}
	if guestToken == "" || guestToken == userToken {
		return userCart, nil
	}
	guestCart, err := s.Load(ctx, guestToken)
	if err != nil {
		return nil, err
	}
	userCart.Merge(guestCart)
	if err := s.Save(ctx, userToken, userCart); err != nil {
		return nil, err
	}
	if err := s.Clear(ctx, guestToken); err != nil {
		return nil, fmt.Errorf("drop guest cart: %w", err)
	}
	return userCart, nil
}
