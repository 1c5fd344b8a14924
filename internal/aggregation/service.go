// internal/aggregation/service.go
package aggregation

import (
	"context"
	"fmt"

	"deal-workers/internal/common/auth"
	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"
)

// Store is the read side the reports need. *repository.Store satisfies it.
type Store interface {
	GetSeller(ctx context.Context, id string) (*models.SellerProfile, error)
	TeamMembers(ctx context.Context, teamID string) ([]*models.SellerProfile, error)
	ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error)
	ProjectsForOwners(ctx context.Context, ownerIDs []string) ([]*models.Project, error)
	AllProjects(ctx context.Context) ([]*models.Project, error)
}

// Cache holds computed reports. *repository.SummaryCache satisfies it.
type Cache interface {
	SellerKey(sellerID string, year int, gen int64) string
	TeamKey(managerID string, year int, gen int64) string
	CompanyKey(year int, gen int64) string
	Generation(ctx context.Context, ownerID string) (int64, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type ServiceOptions struct {
	Store  Store
	Cache  Cache
	Logger logger.Logger
}

// Service authorizes report requests and serves them from cache when it can.
type Service struct {
	store  Store
	cache  Cache
	logger logger.Logger
}

func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("aggregation: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Service{store: opts.Store, cache: opts.Cache, logger: opts.Logger}, nil
}

// SellerSummary is visible to the seller and to managers and admins.
func (s *Service) SellerSummary(ctx context.Context, actor auth.Actor, sellerID string, year int) (*SellerSummary, error) {
	if !actor.Owns(sellerID) && !actor.IsManager() {
		return nil, errors.NewNotAuthorizedError(fmt.Sprintf("actor %s cannot view summary of %s", actor.ID, sellerID))
	}

	var out SellerSummary
	key := s.cacheKey(ctx, "seller", sellerID, func(gen int64) string {
		return s.cache.SellerKey(sellerID, year, gen)
	})
	if s.lookup(ctx, "seller", key, &out) {
		return &out, nil
	}

	profile, err := s.store.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	projects, err := s.store.ListProjects(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	out = Seller(profile, projects, year)
	s.remember(ctx, key, out)
	return &out, nil
}

// TeamSummary is visible to the managing seller, when they hold the manager
// role, and to admins. Members are the profiles sharing the manager's team.
func (s *Service) TeamSummary(ctx context.Context, actor auth.Actor, managerID string, year int) (*TeamSummary, error) {
	if !actor.IsAdmin() && !(actor.Owns(managerID) && actor.IsManager()) {
		return nil, errors.NewNotAuthorizedError(fmt.Sprintf("actor %s cannot view team of %s", actor.ID, managerID))
	}

	var out TeamSummary
	key := s.cacheKey(ctx, "team", "", func(gen int64) string {
		return s.cache.TeamKey(managerID, year, gen)
	})
	if s.lookup(ctx, "team", key, &out) {
		return &out, nil
	}

	manager, err := s.store.GetSeller(ctx, managerID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.TeamMembers(ctx, manager.TeamID)
	if err != nil {
		return nil, err
	}
	members = withManager(manager, members)

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	projects, err := s.store.ProjectsForOwners(ctx, ids)
	if err != nil {
		return nil, err
	}

	out = Team(manager, members, projects, year)
	s.remember(ctx, key, out)
	return &out, nil
}

// CompanyStats is admin only.
func (s *Service) CompanyStats(ctx context.Context, actor auth.Actor, year int) (*CompanyStats, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	var out CompanyStats
	key := s.cacheKey(ctx, "company", "", func(gen int64) string {
		return s.cache.CompanyKey(year, gen)
	})
	if s.lookup(ctx, "company", key, &out) {
		return &out, nil
	}

	projects, err := s.store.AllProjects(ctx)
	if err != nil {
		return nil, err
	}
	out = Company(projects, year)
	s.remember(ctx, key, out)
	return &out, nil
}

// cacheKey reads the generation before the store is, so a fill racing an
// invalidation lands under a stale key. It returns "" when the cache is
// off or the generation cannot be read, which skips the cache entirely.
func (s *Service) cacheKey(ctx context.Context, report, ownerID string, build func(gen int64) string) string {
	if s.cache == nil {
		return ""
	}
	gen, err := s.cache.Generation(ctx, ownerID)
	if err != nil {
		metrics.SummaryCacheLookups.WithLabelValues(report, "error").Inc()
		s.logger.Warn("Summary cache generation read failed", map[string]interface{}{"report": report, "error": err.Error()})
		return ""
	}
	return build(gen)
}

// lookup treats cache errors as misses.
func (s *Service) lookup(ctx context.Context, report, key string, dest interface{}) bool {
	if key == "" {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	switch {
	case err != nil:
		metrics.SummaryCacheLookups.WithLabelValues(report, "error").Inc()
		s.logger.Warn("Summary cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	case hit:
		metrics.SummaryCacheLookups.WithLabelValues(report, "hit").Inc()
		return true
	default:
		metrics.SummaryCacheLookups.WithLabelValues(report, "miss").Inc()
		return false
	}
}

func (s *Service) remember(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("Summary cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func withManager(manager *models.SellerProfile, members []*models.SellerProfile) []*models.SellerProfile {
	for _, m := range members {
		if m.ID == manager.ID {
			return members
		}
	}
	return append(members, manager)
}
