package hall

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/observability"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/cache"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/hall-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// hallListCacheKey caches the full hall list until the next hall is created.
const hallListCacheKey = "halls:all"

// CreateRequest carries everything needed to provision a hall.
type CreateRequest struct {
	Name       string
	Slug       string
	AdminName  string
	AdminPhone string

	Morning SlotContent
	Evening SlotContent

	MorningPricing string
	EveningPricing string

	Instructions string
	Phone        string
	Email        string
	Latitude     float64
	Longitude    float64

	Pictures []*multipart.FileHeader
}

// UpdateRequest carries hall edits. Empty pricing strings keep the stored
// documents; the slug is immutable and absent by design.
type UpdateRequest struct {
	Name       string
	AdminName  string
	AdminPhone string

	Morning SlotContent
	Evening SlotContent

	MorningPricing string
	EveningPricing string

	Instructions string
	Phone        string
	Email        string
	Latitude     float64
	Longitude    float64

	RemovePictures []string
	NewPictures    []*multipart.FileHeader
}

type Service interface {
	// List returns all halls, served from the cache until invalidated.
	List(ctx context.Context) ([]*Hall, error)
	GetBySlug(ctx context.Context, slug string) (*Hall, error)
	GetByID(ctx context.Context, id string) (*Hall, error)

	// Create provisions the hall plus its owner/manager/viewer accounts and
	// synchronously invalidates the hall list cache. Returns the created
	// staff accounts so the caller can surface the generated usernames.
	Create(ctx context.Context, req CreateRequest, actor auth.Actor) (*Hall, []*user.User, error)

	// Update applies owner edits to the actor's own hall.
	Update(ctx context.Context, slug string, req UpdateRequest, actor auth.Actor) (*Hall, error)

	// ResolvePrice resolves the display price for one hall/slot/date.
	ResolvePrice(ctx context.Context, slug string, slot Slot, date string) (pricing.Price, error)
}

type service struct {
	repo      Repository
	hasher    auth.PasswordHasher
	cache     cache.Cache
	store     storage.Storage
	imgProc   *storage.ImageProcessor
	logger    observability.Logger
	staffPass string
}

func NewService(
	repo Repository,
	hasher auth.PasswordHasher,
	c cache.Cache,
	store storage.Storage,
	logger observability.Logger,
	staffPass string,
) Service {
	return &service{
		repo:      repo,
		hasher:    hasher,
		cache:     c,
		store:     store,
		imgProc:   storage.NewImageProcessor(),
		logger:    logger,
		staffPass: staffPass,
	}
}

func (s *service) List(ctx context.Context) ([]*Hall, error) {
	return cache.GetOrCompute(ctx, s.cache, hallListCacheKey, func(ctx context.Context) ([]*Hall, error) {
		return s.repo.List(ctx)
	})
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Hall, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) GetByID(ctx context.Context, id string) (*Hall, error) {
	return s.repo.GetByID(ctx, id)
}

// validatePricing ensures a pricing document parses for its slot before it
// is stored. Stored documents are still re-parsed defensively on read.
func validatePricing(doc string, slot Slot) (json.RawMessage, error) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil, nil
	}
	if _, err := pricing.ParseRuleSet([]byte(doc), string(slot)); err != nil {
		return nil, ErrInvalidPricing
	}
	return json.RawMessage(doc), nil
}

func (s *service) Create(ctx context.Context, req CreateRequest, actor auth.Actor) (*Hall, []*user.User, error) {
	if len(req.Pictures) > MaxPictures {
		return nil, nil, ErrTooManyPictures
	}

	morningPricing, err := validatePricing(req.MorningPricing, SlotMorning)
	if err != nil {
		return nil, nil, err
	}
	eveningPricing, err := validatePricing(req.EveningPricing, SlotEvening)
	if err != nil {
		return nil, nil, err
	}

	h := &Hall{
		Name:           req.Name,
		Slug:           req.Slug,
		AdminName:      req.AdminName,
		AdminPhone:     req.AdminPhone,
		Morning:        req.Morning,
		Evening:        req.Evening,
		MorningPricing: morningPricing,
		EveningPricing: eveningPricing,
		Instructions:   req.Instructions,
		Phone:          req.Phone,
		Email:          req.Email,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}

	saved, err := s.savePictures(ctx, req.Slug, req.Pictures)
	if err != nil {
		return nil, nil, err
	}
	h.Pictures = saved

	staff, err := s.provisionStaff(req.Slug)
	if err != nil {
		s.cleanupPictures(ctx, saved)
		return nil, nil, err
	}

	entry := &audit.Entry{
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   audit.ActionHallCreated,
		Details: fmt.Sprintf("Hall '%s' created with users: %s, %s, %s.",
			req.Name, staff[0].Username, staff[1].Username, staff[2].Username),
	}

	if err := s.repo.CreateWithStaff(ctx, h, staff, entry); err != nil {
		s.cleanupPictures(ctx, saved)
		return nil, nil, err
	}

	// Readers must never pick up the stale list after the hall commits.
	if err := s.cache.Invalidate(ctx, hallListCacheKey); err != nil {
		s.logger.WithField("hall", h.Slug).Error("failed to invalidate hall list cache: ", err)
	}
	observability.HallListCacheInvalidations.Inc()

	s.logger.WithFields(map[string]interface{}{
		"hall": h.Slug,
		"by":   actor.Username,
	}).Info("hall created")

	return h, staff, nil
}

// provisionStaff builds the owner/manager/viewer accounts for a new hall.
// Usernames carry a short random suffix so recreated slugs never collide.
func (s *service) provisionStaff(slug string) ([]*user.User, error) {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:2]

	hash, err := s.hasher.Hash(s.staffPass)
	if err != nil {
		return nil, fmt.Errorf("failed to hash staff password: %w", err)
	}

	return []*user.User{
		{Username: fmt.Sprintf("%s_admin%s", slug, suffix), PasswordHash: hash, Role: user.RoleOwner},
		{Username: fmt.Sprintf("%s1%s", slug, suffix), PasswordHash: hash, Role: user.RoleManager},
		{Username: fmt.Sprintf("%s2%s", slug, suffix), PasswordHash: hash, Role: user.RoleViewer},
	}, nil
}

func (s *service) Update(ctx context.Context, slug string, req UpdateRequest, actor auth.Actor) (*Hall, error) {
	h, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if !actor.IsSiteAdmin {
		if actor.HallID != h.ID || !user.Role(actor.Role).CanEditHall() {
			return nil, ErrNotHallStaff
		}
	}

	h.Name = req.Name
	h.AdminName = req.AdminName
	h.AdminPhone = req.AdminPhone
	h.Morning = req.Morning
	h.Evening = req.Evening
	h.Instructions = req.Instructions
	h.Phone = req.Phone
	h.Email = req.Email
	h.Latitude = req.Latitude
	h.Longitude = req.Longitude

	// Blank pricing fields keep the previous documents.
	if doc, err := validatePricing(req.MorningPricing, SlotMorning); err != nil {
		return nil, err
	} else if doc != nil {
		h.MorningPricing = doc
	}
	if doc, err := validatePricing(req.EveningPricing, SlotEvening); err != nil {
		return nil, err
	} else if doc != nil {
		h.EveningPricing = doc
	}

	if len(req.RemovePictures) > 0 {
		remove := make(map[string]bool, len(req.RemovePictures))
		for _, p := range req.RemovePictures {
			remove[p] = true
		}
		kept := h.Pictures[:0]
		for _, p := range h.Pictures {
			if !remove[p] {
				kept = append(kept, p)
			}
		}
		h.Pictures = kept
	}

	saved, err := s.savePictures(ctx, h.Slug, req.NewPictures)
	if err != nil {
		return nil, err
	}
	h.Pictures = append(h.Pictures, saved...)
	if len(h.Pictures) > MaxPictures {
		h.Pictures = h.Pictures[:MaxPictures]
	}

	entry := &audit.Entry{
		HallID:   h.ID,
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   audit.ActionHallEdited,
		Details:  fmt.Sprintf("Hall '%s' updated.", h.Name),
	}

	if err := s.repo.Update(ctx, h, entry); err != nil {
		s.cleanupPictures(ctx, saved)
		return nil, err
	}

	// Removed pictures are deleted from storage best-effort after commit.
	for _, p := range req.RemovePictures {
		if err := s.store.Delete(ctx, p); err != nil {
			s.logger.WithField("picture", p).Warn("failed to delete picture: ", err)
		}
	}

	if err := s.cache.Invalidate(ctx, hallListCacheKey); err != nil {
		s.logger.WithField("hall", h.Slug).Error("failed to invalidate hall list cache: ", err)
	}
	observability.HallListCacheInvalidations.Inc()

	return h, nil
}

// savePictures scales and stores uploaded pictures, returning their stored names.
func (s *service) savePictures(ctx context.Context, slug string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) > MaxPictures {
		files = files[:MaxPictures]
	}

	var saved []string
	for _, header := range files {
		name, err := s.savePicture(ctx, slug, header)
		if err != nil {
			s.cleanupPictures(ctx, saved)
			return nil, err
		}
		saved = append(saved, name)
	}
	return saved, nil
}

func (s *service) savePicture(ctx context.Context, slug string, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded picture: %w", err)
	}
	defer src.Close()

	resized, err := s.imgProc.FitPicture(src)
	if err != nil {
		return "", fmt.Errorf("failed to process picture: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s_%s%s", slug, strings.ReplaceAll(uuid.New().String(), "-", ""), ext)

	if err := s.store.Save(ctx, name, resized); err != nil {
		return "", fmt.Errorf("failed to store picture: %w", err)
	}
	return name, nil
}

func (s *service) cleanupPictures(ctx context.Context, names []string) {
	for _, name := range names {
		_ = s.store.Delete(ctx, name)
	}
}

func (s *service) ResolvePrice(ctx context.Context, slug string, slot Slot, date string) (pricing.Price, error) {
	h, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return pricing.NotAvailable, err
	}

	day, err := pricing.ParseDate(date)
	if err != nil {
		return pricing.NotAvailable, apperror.BadRequest("invalid date, expected YYYY-MM-DD")
	}

	rs, err := pricing.ParseRuleSet(h.PricingFor(slot), string(slot))
	if err != nil {
		// Degrade to N/A; a broken stored document must not break the page.
		s.logger.WithFields(map[string]interface{}{
			"hall": h.Slug,
			"slot": string(slot),
		}).Error("failed to parse pricing rules: ", err)
		return pricing.NotAvailable, nil
	}

	return rs.Resolve(day), nil
}
