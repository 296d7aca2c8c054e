package service

import (
	"context"
	"errors"
	"sync"

	"github.com/gautamnaik0719/noormeds/internal/cache"
	"github.com/gautamnaik0719/noormeds/internal/domain"
	"github.com/gautamnaik0719/noormeds/internal/events"
	"github.com/gautamnaik0719/noormeds/internal/ledger"
	"github.com/gautamnaik0719/noormeds/internal/metrics"
	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
)

// StockService is the operation boundary above the ledger. It resolves the
// alias marker into a scope exactly once, serializes mutations so no two
// operations interleave mid-mutation, keeps the list cache coherent and
// publishes mutation events.
type StockService struct {
	ledger *ledger.Ledger
	lists  domain.ListCache
	bus    domain.EventPublisher
	logger zerolog.Logger

	// The table store has no transactions; this is the single
	// serialization point for all row mutations in this process.
	mu sync.Mutex
}

func NewStockService(l *ledger.Ledger, lists domain.ListCache, bus domain.EventPublisher, logger *zerolog.Logger) *StockService {
	return &StockService{
		ledger: l,
		lists:  lists,
		bus:    bus,
		logger: logger.With().Str("component", "stock_service").Logger(),
	}
}

func (s *StockService) Search(ctx context.Context, rawQuery string) ([]models.Item, error) {
	query, scope := s.ledger.SplitAlias(rawQuery)
	return s.ledger.FindItems(ctx, query, scope), nil
}

func (s *StockService) SearchArchived(ctx context.Context, rawQuery string, stashOnly bool) ([]models.ArchivedItem, error) {
	query, scope := s.ledger.SplitAlias(rawQuery)
	if scope == models.ScopePrivate {
		stashOnly = true
	}
	return s.ledger.FindArchived(ctx, query, stashOnly), nil
}

func (s *StockService) Consume(ctx context.Context, lines []models.ConsumeLine) ([]models.OpResult, error) {
	s.mu.Lock()
	results := s.ledger.Consume(ctx, lines)
	s.mu.Unlock()

	s.invalidateLists(ctx)
	for _, res := range results {
		metrics.IncOp(string(models.ActionRemove), outcome(res))
		if res.Skipped || res.Error != "" {
			continue
		}
		payload := events.ItemEventPayload{Name: res.Name, Dose: res.Dose, Location: res.Location, Quantity: res.Quantity}
		_ = s.bus.PublishJSON(events.EventItemConsumed, payload)
		if res.Archived {
			_ = s.bus.PublishJSON(events.EventItemDepleted, payload)
		}
	}
	return results, nil
}

func (s *StockService) Restock(ctx context.Context, rawName, dose, location string, quantity int, known *models.RowRef) (models.OpResult, error) {
	name, scope := s.ledger.SplitAlias(rawName)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A restock naming an item that survives only in the archive is a
	// restore, not an append.
	if known == nil && quantity > 0 {
		if entry := s.archivedMatch(ctx, name, dose, location, scope); entry != nil {
			res, err := s.ledger.RestoreArchived(ctx, name, dose, quantity, entry.LastLocation, location)
			s.afterAdd(ctx, res, events.EventItemRestored)
			return res, err
		}
	}

	res, err := s.ledger.Restock(ctx, ledger.RestockRequest{
		Name:     name,
		Dose:     dose,
		Location: location,
		Quantity: quantity,
		Scope:    scope,
		Known:    known,
	})
	s.afterAdd(ctx, res, events.EventItemRestocked)
	return res, err
}

func (s *StockService) AddNew(ctx context.Context, rawName, dose, location string, quantity int) (models.OpResult, error) {
	name, scope := s.ledger.SplitAlias(rawName)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.ledger.AddNew(ctx, name, dose, location, quantity, scope)
	s.afterAdd(ctx, res, events.EventItemAdded)
	return res, err
}

func (s *StockService) Names(ctx context.Context) ([]string, error) {
	if names, ok := s.lists.Get(ctx, cache.KeyNames); ok {
		return names, nil
	}
	names := s.ledger.Names(ctx)
	if err := s.lists.Set(ctx, cache.KeyNames, names); err != nil {
		s.logger.Warn().Err(err).Msg("cache names failed")
	}
	return names, nil
}

func (s *StockService) Doses(ctx context.Context, name string) ([]string, error) {
	clean, _ := s.ledger.SplitAlias(name)
	return s.ledger.Doses(ctx, clean), nil
}

func (s *StockService) Locations(ctx context.Context) ([]string, error) {
	if locations, ok := s.lists.Get(ctx, cache.KeyLocations); ok {
		return locations, nil
	}
	locations := s.ledger.Locations(ctx)
	if err := s.lists.Set(ctx, cache.KeyLocations, locations); err != nil {
		s.logger.Warn().Err(err).Msg("cache locations failed")
	}
	return locations, nil
}

// archivedMatch reports whether the restock target exists only in the
// archive: no live match in scope, but an archive entry with the same
// (name, dose), stash-partitioned per scope.
func (s *StockService) archivedMatch(ctx context.Context, name, dose, location string, scope models.Scope) *models.ArchivedItem {
	if scope == models.ScopePrivate {
		for _, item := range s.ledger.FindItems(ctx, name, scope) {
			if ledger.Normalize(item.Name) == ledger.Normalize(name) && ledger.Normalize(item.Dose) == ledger.Normalize(dose) {
				return nil
			}
		}
	} else {
		if _, err := s.ledger.FindActive(ctx, name, dose, location); !errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
	}

	for _, entry := range s.ledger.FindArchived(ctx, name, scope == models.ScopePrivate) {
		if ledger.Normalize(entry.Name) == ledger.Normalize(name) && ledger.Normalize(entry.Dose) == ledger.Normalize(dose) {
			match := entry
			return &match
		}
	}
	return nil
}

func (s *StockService) afterAdd(ctx context.Context, res models.OpResult, eventType string) {
	metrics.IncOp(string(models.ActionAdd), outcome(res))
	s.invalidateLists(ctx)
	if res.Skipped || res.Error != "" {
		return
	}
	payload := events.ItemEventPayload{Name: res.Name, Dose: res.Dose, Location: res.Location, Quantity: res.Quantity}
	_ = s.bus.PublishJSON(eventType, payload)
}

func (s *StockService) invalidateLists(ctx context.Context) {
	if err := s.lists.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("cache invalidate failed")
	}
}

func outcome(res models.OpResult) string {
	switch {
	case res.Skipped:
		return "skipped"
	case res.Error != "":
		return "error"
	default:
		return "ok"
	}
}
