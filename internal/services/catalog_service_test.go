package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
)

func sampleCatalogAPI() *fakeCatalogAPI {
	return &fakeCatalogAPI{
		cards: []models.RateCard{
			{ID: "1", Name: "Park & Ride", Location: "LHR", Price: 80, Reviews: 40},
			{ID: "2", Name: "Meet & Greet", Location: "LHR", Price: 60, Reviews: 120},
			{ID: "3", Name: "Gatwick Valet", Location: "LGW", Price: 50, Reviews: 10},
		},
		codes: []models.PromoCode{
			{ID: "1", Code: "SUMMER5", DiscountPercent: 5, UsageLimit: 100, UsesCount: 120},
		},
	}
}

func TestLoadCatalogSourcesFailIndependently(t *testing.T) {
	api := sampleCatalogAPI()
	api.codesErr = domain.NetworkError{Op: "fetch promo codes", StatusCode: 503}
	api.grand = 10

	cs := NewCatalogService(api, nil, pricing.Default(), time.Minute)
	catalog := cs.LoadCatalog(context.Background())

	if len(catalog.RateCards) != 3 || catalog.GrandDiscount != 10 {
		t.Fatalf("healthy sources should load, got %+v", catalog)
	}
	if catalog.PromoCodesError == "" || catalog.RateCardsError != "" || catalog.GrandDiscountError != "" {
		t.Fatalf("only promo codes should fail, got %+v", catalog)
	}
	if catalog.Complete() {
		t.Fatalf("catalog with a failed source is not complete")
	}
}

func TestRateCardsReadThroughCache(t *testing.T) {
	api := sampleCatalogAPI()
	cache := newMemoryCache()
	cs := NewCatalogService(api, cache, pricing.Default(), time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cs.RateCards(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls := atomic.LoadInt32(&api.cardCalls); calls != 1 {
		t.Fatalf("expected one API call, got %d", calls)
	}
	if !cache.has(database.RateCardsCacheKey) {
		t.Fatalf("rate cards should be cached")
	}
}

func TestRateCardsConcurrentMissesShareFetch(t *testing.T) {
	api := sampleCatalogAPI()
	cs := NewCatalogService(api, nil, pricing.Default(), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cs.RateCards(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if calls := atomic.LoadInt32(&api.cardCalls); calls < 1 || calls > 20 {
		t.Fatalf("unexpected call count %d", calls)
	}
}

func TestSearchPricesAndSorts(t *testing.T) {
	cs := NewCatalogService(sampleCatalogAPI(), nil, pricing.Default(), time.Minute)
	req := &models.SearchRequest{
		Location:     "lhr",
		Dropoff:      "2024-06-01T10:00",
		Pickup:       "2024-06-02T10:00",
		PromoCode:    "SUMMER5",
		Vehicles:     1,
		Cancellation: true,
	}

	resp, err := cs.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 2 || resp.PromoNotFound {
		t.Fatalf("unexpected response %+v", resp)
	}
	first := resp.Quotes[0]
	if first.RateCard.ID != "2" || first.Display != "59.00" || first.Intent.PromoCode != "SUMMER5" {
		t.Fatalf("cheapest first expected Meet & Greet at 59.00, got %+v", first)
	}

	req.SortBy = SortReviews
	req.PromoCode = "summer5"
	resp, err = cs.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Quotes[0].RateCard.Reviews != 120 || !resp.PromoNotFound {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Quotes[0].Intent.DiscountPercent != 0 {
		t.Fatalf("unknown promo must not discount, got %+v", resp.Quotes[0].Intent)
	}
}

func TestSearchValidatesInput(t *testing.T) {
	cs := NewCatalogService(sampleCatalogAPI(), nil, pricing.Default(), time.Minute)
	if _, err := cs.Search(context.Background(), &models.SearchRequest{Dropoff: "2024-06-01", Pickup: "2024-06-02"}); !domain.IsValidation(err) {
		t.Fatalf("missing location: expected validation error, got %v", err)
	}
	req := &models.SearchRequest{Location: "LHR", Dropoff: "2024-06-02T10:00", Pickup: "2024-06-01T10:00"}
	if _, err := cs.Search(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("reversed dates: expected validation error, got %v", err)
	}
}

func TestSearchSurvivesGrandDiscountOutage(t *testing.T) {
	api := sampleCatalogAPI()
	api.grandErr = errors.New("boom")
	cs := NewCatalogService(api, nil, pricing.Default(), time.Minute)

	resp, err := cs.Search(context.Background(), &models.SearchRequest{Location: "LGW", Dropoff: "2024-06-01", Pickup: "2024-06-03"})
	if err != nil || resp.Count != 1 || resp.Quotes[0].FinalTotal != 50 {
		t.Fatalf("got %+v, %v", resp, err)
	}
}

func TestPromoUsageFlagsOverLimit(t *testing.T) {
	cs := NewCatalogService(sampleCatalogAPI(), nil, pricing.Default(), time.Minute)
	usage, err := cs.PromoUsage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(usage) != 1 || !usage[0].OverLimit || usage[0].OverBy != 20 || usage[0].UsesCount != 120 {
		t.Fatalf("unexpected usage %+v", usage)
	}
}

func TestUpdateGrandDiscount(t *testing.T) {
	api := sampleCatalogAPI()
	cache := newMemoryCache()
	cs := NewCatalogService(api, cache, pricing.Default(), time.Minute)

	if _, err := cs.GrandDiscount(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cache.has(database.GrandDiscountCacheKey) {
		t.Fatalf("grand discount should be cached")
	}

	got, err := cs.UpdateGrandDiscount(context.Background(), 12.345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 12.35 || api.updated[0] != 12.35 {
		t.Fatalf("expected rounding to 12.35, got %v and %v", got, api.updated)
	}
	if cache.has(database.GrandDiscountCacheKey) {
		t.Fatalf("update must invalidate the cached value")
	}

	for _, bad := range []float64{-1, 100.01, math.NaN(), math.Inf(1)} {
		if _, err := cs.UpdateGrandDiscount(context.Background(), bad); !domain.IsValidation(err) {
			t.Fatalf("%v: expected validation error, got %v", bad, err)
		}
	}
	if len(api.updated) != 1 {
		t.Fatalf("invalid values must not reach the API, got %v", api.updated)
	}

	if err := cs.DeleteGrandDiscount(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pct, _ := cs.GrandDiscount(context.Background())
	if pct != 0 || atomic.LoadInt32(&api.deleteCalls) != 1 {
		t.Fatalf("expected discount reset to 0, got %v", pct)
	}
}
