package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/core/usecases"
)

// --- Mock PhotoProvider ---

type mockPhotoProvider struct {
	searchFn func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error)

	mu    sync.Mutex
	calls []domain.GeoPoint
}

func (m *mockPhotoProvider) SearchPhotos(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, pt)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, pt, radius)
	}
	return nil, nil
}

func photoAt(link string, lng float64) domain.PhotoRecord {
	return domain.PhotoRecord{
		Link:     "https://photos.example/p/" + link,
		ImageURL: "https://cdn.example/" + link + ".jpg",
		Location: domain.GeoPoint{Lat: 37.77, Lng: lng},
	}
}

// byCoordinate answers each search with the photos registered for that
// point, after the registered delay.
func byCoordinate(photos map[domain.GeoPoint][]domain.PhotoRecord, delays map[domain.GeoPoint]time.Duration) *mockPhotoProvider {
	return &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			select {
			case <-time.After(delays[pt]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return photos[pt], nil
		},
	}
}

func representativeLngs(groups []domain.CoordinatePhotoGroup) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.Representative().Lng
	}
	return out
}

func equalLngs(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAggregate_WestboundSortsDescending(t *testing.T) {
	a := domain.GeoPoint{Lat: 37.77, Lng: 10}
	b := domain.GeoPoint{Lat: 37.78, Lng: 5}
	c := domain.GeoPoint{Lat: 37.79, Lng: 0}

	// C completes first, then A, then B.
	provider := byCoordinate(
		map[domain.GeoPoint][]domain.PhotoRecord{
			a: {photoAt("a1", 10), photoAt("a2", 10.2)},
			b: {photoAt("b1", 5)},
			c: {photoAt("c1", 0)},
		},
		map[domain.GeoPoint]time.Duration{c: 0, a: 20 * time.Millisecond, b: 40 * time.Millisecond},
	)

	agg := usecases.NewPhotoAggregator(provider, 0, time.Second)
	groups, err := agg.Aggregate(context.Background(), []domain.GeoPoint{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := representativeLngs(groups), []float64{10, 5, 0}; !equalLngs(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	if len(groups[0].Photos) != 2 || groups[0].Photos[0].Link != "https://photos.example/p/a1" {
		t.Errorf("expected A's photos in provider order, got %+v", groups[0].Photos)
	}
}

func TestAggregate_EastboundSortsAscending(t *testing.T) {
	origin := domain.GeoPoint{Lat: 37.70, Lng: -1}
	mid := domain.GeoPoint{Lat: 37.71, Lng: 4}
	dest := domain.GeoPoint{Lat: 37.72, Lng: 11}

	provider := byCoordinate(
		map[domain.GeoPoint][]domain.PhotoRecord{
			origin: {photoAt("c", 0)},
			mid:    {photoAt("a", 10)},
			dest:   {photoAt("b", 5)},
		},
		map[domain.GeoPoint]time.Duration{dest: 30 * time.Millisecond, mid: 10 * time.Millisecond},
	)

	groups, err := usecases.NewPhotoAggregator(provider, 0, time.Second).
		Aggregate(context.Background(), []domain.GeoPoint{origin, mid, dest})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := representativeLngs(groups), []float64{0, 5, 10}; !equalLngs(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestAggregate_EmptyResultStillCompletes(t *testing.T) {
	a := domain.GeoPoint{Lat: 1, Lng: 30}
	b := domain.GeoPoint{Lat: 1, Lng: 20}
	c := domain.GeoPoint{Lat: 1, Lng: 10}

	provider := byCoordinate(
		map[domain.GeoPoint][]domain.PhotoRecord{
			a: {photoAt("a", 30)},
			c: {photoAt("c", 10)},
		},
		nil,
	)

	groups, err := usecases.NewPhotoAggregator(provider, 0, time.Second).
		Aggregate(context.Background(), []domain.GeoPoint{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if len(groups[1].Photos) != 0 || groups[1].Coordinate != b {
		t.Errorf("expected the empty group for B in the middle, got %+v", groups[1])
	}
	if groups[1].Error != "" {
		t.Errorf("an empty result is not an error, got %q", groups[1].Error)
	}
}

func TestAggregate_TimeoutBecomesErrorGroup(t *testing.T) {
	slow := domain.GeoPoint{Lat: 2, Lng: 2}
	provider := &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			if pt == slow {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return []domain.PhotoRecord{photoAt("ok", pt.Lng)}, nil
		},
	}

	start := time.Now()
	groups, err := usecases.NewPhotoAggregator(provider, 0, 50*time.Millisecond).
		Aggregate(context.Background(), []domain.GeoPoint{{Lat: 1, Lng: 1}, slow, {Lat: 3, Lng: 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Errorf("aggregation should finish shortly after the call timeout, took %s", time.Since(start))
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[1].Coordinate != slow || groups[1].Error == "" {
		t.Errorf("expected an error group for the slow point, got %+v", groups[1])
	}
}

func TestAggregate_ProviderIgnoringContextCannotStall(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	lost := domain.GeoPoint{Lat: 5, Lng: 5}
	provider := &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			if pt == lost {
				<-release
			}
			return nil, nil
		},
	}

	done := make(chan []domain.CoordinatePhotoGroup, 1)
	go func() {
		groups, _ := usecases.NewPhotoAggregator(provider, 0, 20*time.Millisecond).
			Aggregate(context.Background(), []domain.GeoPoint{{Lat: 4, Lng: 4}, lost})
		done <- groups
	}()

	select {
	case groups := <-done:
		if len(groups) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(groups))
		}
		if groups[1].Coordinate != lost || groups[1].Error == "" {
			t.Errorf("expected the lost search to resolve to an error group, got %+v", groups[1])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("aggregation stalled on a lost response")
	}
}

func TestAggregate_ProviderErrorIsIsolated(t *testing.T) {
	bad := domain.GeoPoint{Lat: 0, Lng: 1}
	provider := &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			if pt == bad {
				return nil, &domain.ProviderError{Provider: "instagram", Op: "media search", Err: errors.New("503")}
			}
			return []domain.PhotoRecord{photoAt("p", pt.Lng)}, nil
		},
	}

	groups, err := usecases.NewPhotoAggregator(provider, 0, time.Second).
		Aggregate(context.Background(), []domain.GeoPoint{{Lng: 0}, bad, {Lng: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failed := 0
	for _, g := range groups {
		if g.Error != "" {
			failed++
		}
	}
	if len(groups) != 3 || failed != 1 {
		t.Errorf("expected 3 groups with 1 failure, got %d groups and %d failures", len(groups), failed)
	}
}

func TestAggregate_DropsMalformedRecords(t *testing.T) {
	pt := domain.GeoPoint{Lat: 1, Lng: 1}
	provider := &mockPhotoProvider{
		searchFn: func(ctx context.Context, p domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			return []domain.PhotoRecord{
				{Link: "https://photos.example/p/noimage", Location: p},
				photoAt("good", 1),
				{ImageURL: "https://cdn.example/nolink.jpg", Location: p},
			}, nil
		},
	}

	groups, err := usecases.NewPhotoAggregator(provider, 0, time.Second).Aggregate(context.Background(), []domain.GeoPoint{pt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Photos) != 1 {
		t.Fatalf("expected 1 group with 1 valid photo, got %+v", groups)
	}
}

func TestAggregate_PassesSearchRadius(t *testing.T) {
	var got []int
	var mu sync.Mutex
	provider := &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			mu.Lock()
			got = append(got, radius)
			mu.Unlock()
			return nil, nil
		},
	}

	_, _ = usecases.NewPhotoAggregator(provider, 0, time.Second).Aggregate(context.Background(), []domain.GeoPoint{{Lng: 1}})
	_, _ = usecases.NewPhotoAggregator(provider, 1200, time.Second).Aggregate(context.Background(), []domain.GeoPoint{{Lng: 1}})

	if len(got) != 2 || got[0] != 300 || got[1] != 1200 {
		t.Errorf("expected radii [300 1200], got %v", got)
	}
}

func TestAggregate_NoCoordinates(t *testing.T) {
	provider := &mockPhotoProvider{}
	groups, err := usecases.NewPhotoAggregator(provider, 0, time.Second).Aggregate(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 || len(provider.calls) != 0 {
		t.Errorf("expected no groups and no calls, got %d groups and %d calls", len(groups), len(provider.calls))
	}
}

func TestAggregate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := byCoordinate(nil, map[domain.GeoPoint]time.Duration{{Lng: 1}: time.Second})
	_, err := usecases.NewPhotoAggregator(provider, 0, time.Second).Aggregate(ctx, []domain.GeoPoint{{Lng: 1}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAggregate_RoundTripFromSampler(t *testing.T) {
	points := usecases.NewRouteSampler().Sample(eastbound(700, 450, 1100, 300), 0)
	if len(points) == 0 {
		t.Fatal("expected sampled points")
	}

	provider := &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			return []domain.PhotoRecord{photoAt("x", pt.Lng)}, nil
		},
	}

	groups, err := usecases.NewPhotoAggregator(provider, 0, time.Second).Aggregate(context.Background(), points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != len(points) || len(provider.calls) != len(points) {
		t.Fatalf("expected %d groups and calls, got %d groups and %d calls", len(points), len(groups), len(provider.calls))
	}

	seen := make(map[domain.GeoPoint]int)
	for _, g := range groups {
		seen[g.Coordinate]++
	}
	for _, p := range points {
		if seen[p] != 1 {
			t.Errorf("point %+v consumed %d times", p, seen[p])
		}
	}

	// Eastbound route: groups come back in travel order.
	for i := 1; i < len(groups); i++ {
		if groups[i].Representative().Lng < groups[i-1].Representative().Lng {
			t.Errorf("group %d is out of travel order", i)
		}
	}
}

func TestSortGroups_LatitudeIgnored(t *testing.T) {
	groups := []domain.CoordinatePhotoGroup{
		{Photos: []domain.PhotoRecord{{Location: domain.GeoPoint{Lat: 50, Lng: 3}}}},
		{Photos: []domain.PhotoRecord{{Location: domain.GeoPoint{Lat: -50, Lng: 1}}}},
		{Photos: []domain.PhotoRecord{{Location: domain.GeoPoint{Lat: 0, Lng: 2}}}},
	}
	coords := []domain.GeoPoint{{Lat: 90, Lng: 0}, {Lat: -90, Lng: 0}}

	sorted := usecases.SortGroups(groups, coords)
	if got, want := representativeLngs(sorted), []float64{1, 2, 3}; !equalLngs(got, want) {
		t.Errorf("expected %v for a due-south trip, got %v", want, got)
	}
}
