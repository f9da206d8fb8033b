// Package cart owns the shopping cart aggregate: an ordered list of
// (product, quantity) entries with derived totals, persisted through the
// storage port after every mutation. A dedicated goroutine serializes all
// access so the state needs no locks.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"milsabores/pkg/catalog"
	"milsabores/pkg/storage"
)

// action names for the command envelope.
const (
	actionAdd    = "add"
	actionRemove = "remove"
	actionSet    = "set"
	actionChange = "change"
	actionClear  = "clear"
)

// command envelopes one mutation for the service goroutine.
type command struct {
	action   string
	id       string
	quantity int
	reply    chan commandResult
}

// commandResult carries the post-mutation snapshot or the rejection reason.
type commandResult struct {
	snapshot Snapshot
	err      error
}

// query requests a consistent read of the current state.
type query struct {
	reply chan queryResult
}

// queryResult returns the snapshot together with the transient error flag.
type queryResult struct {
	snapshot Snapshot
	lastErr  error
}

// Service coordinates all cart mutations through a single goroutine, the same
// way the ordering services in this codebase serialize their state.
type Service struct {
	catalog  *catalog.Catalog
	store    storage.Store
	logger   *zap.Logger
	commands chan command
	queries  chan query
	quit     chan struct{}

	entries []Entry
	lastErr error
}

// NewService rehydrates the persisted cart and starts the goroutine. An
// absent or malformed stored value yields an empty cart, never an error.
func NewService(cat *catalog.Catalog, store storage.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		catalog:  cat,
		store:    store,
		logger:   logger,
		commands: make(chan command),
		queries:  make(chan query),
		quit:     make(chan struct{}),
	}
	svc.entries = svc.rehydrate()
	go svc.loop()
	return svc
}

// rehydrate loads the stored entry list and drops entries that no longer
// resolve against the catalog or carry an out-of-range quantity.
func (s *Service) rehydrate() []Entry {
	raw, err := s.store.Load(context.Background(), StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("unable to load stored cart, starting empty", zap.Error(err))
		}
		return nil
	}
	var stored []Entry
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("stored cart is malformed, starting empty", zap.Error(err))
		return nil
	}
	entries := make([]Entry, 0, len(stored))
	for _, entry := range stored {
		if _, ok := s.catalog.ByID(entry.ID); !ok {
			s.logger.Warn("dropping cart entry for unknown product", zap.String("product_id", entry.ID))
			continue
		}
		if entry.Quantity < MinQuantity || entry.Quantity > MaxQuantity {
			s.logger.Warn("dropping cart entry with invalid quantity",
				zap.String("product_id", entry.ID), zap.Int("quantity", entry.Quantity))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// loop applies commands and answers queries sequentially.
func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			snapshot, err := s.apply(cmd)
			cmd.reply <- commandResult{snapshot: snapshot, err: err}
		case q := <-s.queries:
			q.reply <- queryResult{snapshot: s.snapshot(), lastErr: s.lastErr}
		case <-s.quit:
			return
		}
	}
}

// apply executes one mutation. Each operation either fully succeeds or leaves
// the entry list exactly as it was.
func (s *Service) apply(cmd command) (Snapshot, error) {
	switch cmd.action {
	case actionAdd:
		product, ok := s.catalog.ByID(cmd.id)
		if !ok {
			s.lastErr = catalog.ErrNotFound
			return s.snapshot(), catalog.ErrNotFound
		}
		quantity := cmd.quantity
		if quantity < MinQuantity {
			quantity = MinQuantity
		}
		if existing := s.indexOf(cmd.id); existing >= 0 {
			s.entries[existing].Quantity = clampQuantity(s.entries[existing].Quantity + quantity)
		} else {
			s.entries = append(s.entries, Entry{
				ID:          product.ID,
				Name:        product.Name,
				Price:       product.Price,
				Quantity:    clampQuantity(quantity),
				ImageURL:    product.ImageURL,
				Description: product.ShortDescription,
			})
		}
	case actionRemove:
		s.removeEntry(cmd.id)
	case actionSet:
		if cmd.quantity <= 0 {
			s.removeEntry(cmd.id)
			break
		}
		if existing := s.indexOf(cmd.id); existing >= 0 {
			s.entries[existing].Quantity = clampQuantity(cmd.quantity)
		}
	case actionChange:
		existing := s.indexOf(cmd.id)
		if existing < 0 {
			// Absent id is a no-op, not an error.
			return s.snapshot(), nil
		}
		next := s.entries[existing].Quantity + cmd.quantity
		if next <= 0 {
			s.removeEntry(cmd.id)
		} else {
			s.entries[existing].Quantity = clampQuantity(next)
		}
	case actionClear:
		s.entries = nil
	default:
		return s.snapshot(), errors.New("unknown cart action")
	}

	s.persist()
	return s.snapshot(), nil
}

// persist writes the entry list through the storage port. A failed write is
// non-fatal: the in-memory state stays authoritative and the failure is kept
// as a transient flag until the next successful write.
func (s *Service) persist() {
	payload, err := json.Marshal(entriesOrEmpty(s.entries))
	if err != nil {
		s.logger.Error("unable to encode cart for persistence", zap.Error(err))
		s.lastErr = err
		return
	}
	if err := s.store.Save(context.Background(), StorageKey, payload); err != nil {
		s.logger.Warn("unable to persist cart", zap.Error(err))
		s.lastErr = err
		return
	}
	s.lastErr = nil
}

// entriesOrEmpty keeps the persisted payload a JSON array even when empty.
func entriesOrEmpty(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	return entries
}

func (s *Service) indexOf(id string) int {
	for i, entry := range s.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) removeEntry(id string) {
	filtered := s.entries[:0]
	for _, entry := range s.entries {
		if entry.ID != id {
			filtered = append(filtered, entry)
		}
	}
	s.entries = filtered
}

func clampQuantity(quantity int) int {
	if quantity < MinQuantity {
		return MinQuantity
	}
	if quantity > MaxQuantity {
		return MaxQuantity
	}
	return quantity
}

// snapshot derives totals with live catalog prices. Entries whose product
// somehow no longer resolves fall back to their stored price copy.
func (s *Service) snapshot() Snapshot {
	snap := Snapshot{Entries: append([]Entry(nil), s.entries...)}
	for _, entry := range s.entries {
		price := entry.Price
		if product, ok := s.catalog.ByID(entry.ID); ok {
			price = product.Price
		}
		snap.TotalItems += entry.Quantity
		snap.TotalPrice += price * entry.Quantity
	}
	return snap
}

// Add puts quantity units of a product into the cart, merging with an
// existing entry and clamping at MaxQuantity. Unknown products leave the cart
// unchanged and return catalog.ErrNotFound.
func (s *Service) Add(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	return s.submit(ctx, command{action: actionAdd, id: productID, quantity: quantity})
}

// Remove deletes the entry for productID. Removing an absent id is a no-op.
func (s *Service) Remove(ctx context.Context, productID string) (Snapshot, error) {
	return s.submit(ctx, command{action: actionRemove, id: productID})
}

// SetQuantity fixes an entry's quantity. Zero or negative values remove the
// entry; everything else clamps into [MinQuantity, MaxQuantity].
func (s *Service) SetQuantity(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	return s.submit(ctx, command{action: actionSet, id: productID, quantity: quantity})
}

// ChangeQuantity adjusts an entry by delta, removing it when the result drops
// to zero or below. An absent id is a no-op.
func (s *Service) ChangeQuantity(ctx context.Context, productID string, delta int) (Snapshot, error) {
	return s.submit(ctx, command{action: actionChange, id: productID, quantity: delta})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) (Snapshot, error) {
	return s.submit(ctx, command{action: actionClear})
}

// Snapshot returns the current entries and totals.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := s.ask(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return res.snapshot, nil
}

// Quantity reports how many units of a product the cart holds, zero when the
// product is not present.
func (s *Service) Quantity(ctx context.Context, productID string) (int, error) {
	res, err := s.ask(ctx)
	if err != nil {
		return 0, err
	}
	for _, entry := range res.snapshot.Entries {
		if entry.ID == productID {
			return entry.Quantity, nil
		}
	}
	return 0, nil
}

// Contains reports whether a product has an entry in the cart.
func (s *Service) Contains(ctx context.Context, productID string) (bool, error) {
	quantity, err := s.Quantity(ctx, productID)
	if err != nil {
		return false, err
	}
	return quantity > 0, nil
}

// LastError exposes the transient flag left by the most recent failed
// persistence attempt; nil after any successful write.
func (s *Service) LastError(ctx context.Context) (error, error) {
	res, err := s.ask(ctx)
	if err != nil {
		return nil, err
	}
	return res.lastErr, nil
}

// Close stops the service goroutine for graceful shutdown.
func (s *Service) Close() {
	close(s.quit)
}

// submit hands a mutation to the loop and waits for the outcome.
func (s *Service) submit(ctx context.Context, cmd command) (Snapshot, error) {
	cmd.reply = make(chan commandResult)

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return Snapshot{}, errors.New("cart queue is busy")
	}

	select {
	case res := <-cmd.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return Snapshot{}, errors.New("cart operation took too long")
	}
}

// ask performs a read query against the loop.
func (s *Service) ask(ctx context.Context) (queryResult, error) {
	q := query{reply: make(chan queryResult)}

	select {
	case s.queries <- q:
	case <-ctx.Done():
		return queryResult{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return queryResult{}, errors.New("cart queue is busy")
	}

	select {
	case res := <-q.reply:
		return res, nil
	case <-ctx.Done():
		return queryResult{}, ctx.Err()
	case <-time.After(2 * time.Second):
		return queryResult{}, errors.New("cart query took too long")
	}
}
