package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
)

// Sort orders for search results
const (
	SortCheapest = "cheapest"
	SortReviews  = "reviews"
)

// CatalogService serves rate cards, promo codes and the grand discount
type CatalogService struct {
	api     CatalogAPI
	cache   Cache
	pricing pricing.Engine
	ttl     time.Duration
	// Singleflight group to prevent cache stampede
	loadGroup singleflight.Group
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(api CatalogAPI, cache Cache, engine pricing.Engine, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{
		api:     api,
		cache:   cache,
		pricing: engine,
		ttl:     ttl,
	}
}

// LoadCatalog fetches the three catalog sources concurrently. Each source
// fails on its own; the call returns once all three have finished.
func (cs *CatalogService) LoadCatalog(ctx context.Context) *models.Catalog {
	catalog := &models.Catalog{}

	// a plain group: one failing source must not cancel the others
	var g errgroup.Group
	g.Go(func() error {
		cards, err := cs.RateCards(ctx)
		if err != nil {
			log.Printf("Failed to load rate cards: %v", err)
			catalog.RateCardsError = err.Error()
			return nil
		}
		catalog.RateCards = cards
		return nil
	})
	g.Go(func() error {
		codes, err := cs.PromoCodes(ctx)
		if err != nil {
			log.Printf("Failed to load promo codes: %v", err)
			catalog.PromoCodesError = err.Error()
			return nil
		}
		catalog.PromoCodes = codes
		return nil
	})
	g.Go(func() error {
		pct, err := cs.GrandDiscount(ctx)
		if err != nil {
			log.Printf("Failed to load grand discount: %v", err)
			catalog.GrandDiscountError = err.Error()
			return nil
		}
		catalog.GrandDiscount = pct
		return nil
	})
	_ = g.Wait()

	return catalog
}

// RateCards returns all rate cards, cached
func (cs *CatalogService) RateCards(ctx context.Context) ([]models.RateCard, error) {
	return readThrough(ctx, cs, database.RateCardsCacheKey, cs.api.FetchRateCards)
}

// PromoCodes returns all promo codes, cached
func (cs *CatalogService) PromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	return readThrough(ctx, cs, database.PromoCodesCacheKey, cs.api.FetchPromoCodes)
}

// GrandDiscount returns the site-wide discount percent, cached
func (cs *CatalogService) GrandDiscount(ctx context.Context) (float64, error) {
	return readThrough(ctx, cs, database.GrandDiscountCacheKey, cs.api.FetchGrandDiscount)
}

// RateCard finds a rate card by id
func (cs *CatalogService) RateCard(ctx context.Context, id string) (*models.RateCard, error) {
	cards, err := cs.RateCards(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if string(cards[i].ID) == id {
			return &cards[i], nil
		}
	}
	return nil, domain.ValidationError{Field: "rateCardId", Msg: fmt.Sprintf("unknown rate card %q", id)}
}

// LookupPromo finds a promo code by exact match. ok is false when the
// code does not exist.
func (cs *CatalogService) LookupPromo(ctx context.Context, code string) (*models.PromoCode, bool, error) {
	if code == "" {
		return nil, false, nil
	}
	codes, err := cs.PromoCodes(ctx)
	if err != nil {
		return nil, false, err
	}
	promo, ok := models.FindPromo(codes, code)
	return promo, ok, nil
}

// PromoUsage returns the admin usage view of every promo code
func (cs *CatalogService) PromoUsage(ctx context.Context) ([]models.PromoUsage, error) {
	codes, err := cs.PromoCodes(ctx)
	if err != nil {
		return nil, err
	}
	usage := make([]models.PromoUsage, 0, len(codes))
	for i := range codes {
		usage = append(usage, codes[i].Usage())
	}
	return usage, nil
}

// Search prices every rate card at the requested location
func (cs *CatalogService) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if strings.TrimSpace(req.Location) == "" {
		return nil, domain.ValidationError{Field: "location", Msg: "is required"}
	}
	if _, err := cs.pricing.ComputeDurationISO(req.Dropoff, req.Pickup); err != nil {
		return nil, err
	}

	cards, err := cs.RateCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate cards: %w", err)
	}

	promo, found, err := cs.LookupPromo(ctx, req.PromoCode)
	if err != nil {
		log.Printf("Promo lookup failed, searching without promo: %v", err)
	}

	grand, err := cs.GrandDiscount(ctx)
	if err != nil {
		log.Printf("Grand discount unavailable, searching without it: %v", err)
		grand = 0
	}

	quotes := make([]models.Quote, 0, len(cards))
	for _, card := range cards {
		if !strings.EqualFold(strings.TrimSpace(card.Location), strings.TrimSpace(req.Location)) {
			continue
		}
		intent, err := cs.pricing.BuildBookingIntent(card, *req, promo, grand)
		if err != nil {
			log.Printf("Skipping rate card %s: %v", card.ID, err)
			continue
		}
		final, err := cs.pricing.Quote(intent)
		if err != nil {
			log.Printf("Skipping rate card %s: %v", card.ID, err)
			continue
		}
		quotes = append(quotes, models.Quote{
			RateCard:   card,
			Intent:     intent,
			FinalTotal: pricing.Round2(final),
			Display:    pricing.FormatAmount(final),
		})
	}

	sortQuotes(quotes, req.SortBy)

	return &models.SearchResponse{
		Quotes:        quotes,
		Count:         len(quotes),
		PromoNotFound: req.PromoCode != "" && !found,
	}, nil
}

func sortQuotes(quotes []models.Quote, sortBy string) {
	switch sortBy {
	case SortReviews:
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].RateCard.Reviews > quotes[j].RateCard.Reviews
		})
	default:
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].FinalTotal < quotes[j].FinalTotal
		})
	}
}

// UpdateGrandDiscount validates and stores a new site-wide discount. The
// value is rounded to two decimals and must lie in [0,100].
func (cs *CatalogService) UpdateGrandDiscount(ctx context.Context, percent float64) (float64, error) {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return 0, domain.ValidationError{Field: "discount", Msg: "must be a number", Err: domain.ErrInvalidAmount}
	}
	percent = pricing.Round2(percent)
	if percent < 0 || percent > 100 {
		return 0, domain.ValidationError{Field: "discount", Msg: "must be between 0 and 100"}
	}

	if err := cs.api.UpdateGrandDiscount(ctx, percent); err != nil {
		return 0, err
	}
	cs.invalidate(ctx, database.GrandDiscountCacheKey)

	log.Printf("Grand discount set to %.2f%%", percent)
	return percent, nil
}

// DeleteGrandDiscount removes the site-wide discount
func (cs *CatalogService) DeleteGrandDiscount(ctx context.Context) error {
	if err := cs.api.DeleteGrandDiscount(ctx); err != nil {
		return err
	}
	cs.invalidate(ctx, database.GrandDiscountCacheKey)

	log.Println("Grand discount removed")
	return nil
}

func (cs *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.Delete(ctx, keys...); err != nil {
		log.Printf("Failed to invalidate cache keys %v: %v", keys, err)
	}
}

// readThrough serves key from cache, falling back to fetch. Concurrent
// misses for the same key share one fetch. Cache failures degrade to a
// direct fetch.
func readThrough[T any](ctx context.Context, cs *CatalogService, key string, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	if cs.cache != nil {
		if err := cs.cache.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	v, err, _ := cs.loadGroup.Do(key, func() (interface{}, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if cs.cache != nil {
			if err := cs.cache.SetJSON(ctx, key, fresh, cs.ttl); err != nil {
				log.Printf("Failed to cache %s: %v", key, err)
			}
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
