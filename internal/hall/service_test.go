package hall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
	"github.com/nekogravitycat/hall-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

type fakeRepository struct {
	halls     map[string]*Hall
	staff     []*user.User
	nextID    int
	lastEntry *audit.Entry
	listCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{halls: make(map[string]*Hall)}
}

func (r *fakeRepository) List(ctx context.Context) ([]*Hall, error) {
	r.listCalls++
	var out []*Hall
	for _, h := range r.halls {
		clone := *h
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeRepository) GetBySlug(ctx context.Context, slug string) (*Hall, error) {
	h, ok := r.halls[slug]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *h
	return &clone, nil
}

func (r *fakeRepository) GetByID(ctx context.Context, id string) (*Hall, error) {
	for _, h := range r.halls {
		if h.ID == id {
			clone := *h
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepository) CreateWithStaff(ctx context.Context, h *Hall, staff []*user.User, entry *audit.Entry) error {
	if _, exists := r.halls[h.Slug]; exists {
		return ErrSlugTaken
	}
	r.nextID++
	h.ID = fmt.Sprintf("hall-%d", r.nextID)
	clone := *h
	r.halls[h.Slug] = &clone
	r.staff = append(r.staff, staff...)
	r.lastEntry = entry
	return nil
}

func (r *fakeRepository) Update(ctx context.Context, h *Hall, entry *audit.Entry) error {
	if _, ok := r.halls[h.Slug]; !ok {
		return ErrNotFound
	}
	clone := *h
	r.halls[h.Slug] = &clone
	r.lastEntry = entry
	return nil
}

// memoryCache is an in-process Cache for tests.
type memoryCache struct {
	entries     map[string][]byte
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, data []byte) error {
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, key string) error {
	delete(c.entries, key)
	c.invalidated++
	return nil
}

type nopStorage struct{}

func (nopStorage) Save(ctx context.Context, path string, content io.Reader) error { return nil }

func (nopStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) { return nil, nil }

func (nopStorage) Delete(ctx context.Context, path string) error { return nil }

const testStaffPass = "Hall%-2000"

func newTestService(t *testing.T) (Service, *fakeRepository, *memoryCache) {
	t.Helper()
	repo := newFakeRepository()
	c := newMemoryCache()
	hasher := auth.NewBcryptPasswordHasher(4)
	svc := NewService(repo, hasher, c, nopStorage{}, observability.NewLogger(), testStaffPass)
	return svc, repo, c
}

var adminActor = auth.Actor{UserID: "root", Username: "root", IsSiteAdmin: true}

const validPricing = `{"intervals": [{"start_date": "2026-01-01", "end_date": "2026-12-31",
	"prices": [100, 100, 100, 100, 100, 200, 200]}]}`

func validCreateRequest() CreateRequest {
	return CreateRequest{
		Name:           "Grand Hall",
		Slug:           "grand-hall",
		AdminName:      "Sam Lin",
		AdminPhone:     "0911222333",
		MorningPricing: validPricing,
		EveningPricing: validPricing,
	}
}

func TestCreateHallProvisionsStaff(t *testing.T) {
	svc, repo, _ := newTestService(t)

	h, staff, err := svc.Create(context.Background(), validCreateRequest(), adminActor)
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	require.Len(t, staff, 3)
	assert.Equal(t, user.RoleOwner, staff[0].Role)
	assert.Equal(t, user.RoleManager, staff[1].Role)
	assert.Equal(t, user.RoleViewer, staff[2].Role)

	// Usernames are slug-derived with a shared random suffix.
	suffix := strings.TrimPrefix(staff[0].Username, "grand-hall_admin")
	require.Len(t, suffix, 2)
	assert.Equal(t, "grand-hall1"+suffix, staff[1].Username)
	assert.Equal(t, "grand-hall2"+suffix, staff[2].Username)

	// All three accounts start with the configured default password.
	hasher := auth.NewBcryptPasswordHasher(4)
	for _, u := range staff {
		assert.NoError(t, hasher.Compare(u.PasswordHash, testStaffPass), u.Username)
	}

	require.NotNil(t, repo.lastEntry)
	assert.Equal(t, audit.ActionHallCreated, repo.lastEntry.Action)
	assert.Contains(t, repo.lastEntry.Details, staff[0].Username)
}

func TestCreateHallRejectsInvalidPricing(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validCreateRequest()
	req.MorningPricing = "{broken"
	_, _, err := svc.Create(context.Background(), req, adminActor)
	assert.ErrorIs(t, err, ErrInvalidPricing)
}

func TestCreateHallDuplicateSlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, validCreateRequest(), adminActor)
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, validCreateRequest(), adminActor)
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestListUsesCacheUntilInvalidated(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, validCreateRequest(), adminActor)
	require.NoError(t, err)

	halls, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, halls, 1)
	assert.Equal(t, 1, repo.listCalls)

	// Second read is served from the cache.
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// Creating another hall invalidates the list.
	req := validCreateRequest()
	req.Slug = "second-hall"
	req.Name = "Second Hall"
	_, _, err = svc.Create(ctx, req, adminActor)
	require.NoError(t, err)
	assert.Positive(t, c.invalidated)

	halls, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, halls, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestUpdateHallAuthorization(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	h, _, err := svc.Create(ctx, validCreateRequest(), adminActor)
	require.NoError(t, err)

	req := UpdateRequest{Name: "Renamed Hall"}

	owner := auth.Actor{UserID: "u1", Role: "owner", HallID: h.ID}
	updated, err := svc.Update(ctx, h.Slug, req, owner)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Hall", updated.Name)

	manager := auth.Actor{UserID: "u2", Role: "manager", HallID: h.ID}
	_, err = svc.Update(ctx, h.Slug, req, manager)
	assert.ErrorIs(t, err, ErrNotHallStaff)

	foreignOwner := auth.Actor{UserID: "u3", Role: "owner", HallID: "other-hall"}
	_, err = svc.Update(ctx, h.Slug, req, foreignOwner)
	assert.ErrorIs(t, err, ErrNotHallStaff)

	_, err = svc.Update(ctx, h.Slug, req, adminActor)
	assert.NoError(t, err)
}

func TestUpdateHallKeepsPricingWhenBlank(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	h, _, err := svc.Create(ctx, validCreateRequest(), adminActor)
	require.NoError(t, err)

	_, err = svc.Update(ctx, h.Slug, UpdateRequest{Name: "Renamed"}, adminActor)
	require.NoError(t, err)

	stored := repo.halls[h.Slug]
	assert.JSONEq(t, validPricing, string(stored.MorningPricing))
}

func TestResolvePrice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	h, _, err := svc.Create(ctx, validCreateRequest(), adminActor)
	require.NoError(t, err)

	// 2026-09-07 is a Monday.
	price, err := svc.ResolvePrice(ctx, h.Slug, SlotMorning, "2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, pricing.PriceOf(100), price)

	// 2026-09-12 is a Saturday.
	price, err = svc.ResolvePrice(ctx, h.Slug, SlotMorning, "2026-09-12")
	require.NoError(t, err)
	assert.Equal(t, pricing.PriceOf(200), price)

	_, err = svc.ResolvePrice(ctx, h.Slug, SlotMorning, "12/09/2026")
	assert.Error(t, err)

	_, err = svc.ResolvePrice(ctx, "no-such-hall", SlotMorning, "2026-09-12")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPricingDocumentRoundTrip(t *testing.T) {
	// The stored document stays byte-compatible with what was submitted.
	var doc json.RawMessage = []byte(validPricing)
	rs, err := pricing.ParseRuleSet(doc, "morning")
	require.NoError(t, err)

	day, err := pricing.ParseDate("2026-03-02") // Monday
	require.NoError(t, err)
	assert.Equal(t, pricing.PriceOf(100), rs.Resolve(day))
}
