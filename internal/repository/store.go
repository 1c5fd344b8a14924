// internal/repository/store.go
package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"

	"deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"
)

// Cleaner evicts non-essential cached state to make room for a write.
type Cleaner interface {
	Purge(ctx context.Context) (int, error)
}

// Store gives typed access to the three collections. Every write is checked
// against the collection's record schema, and a rejected write is retried
// exactly once after a cleanup pass.
type Store struct {
	gw      Gateway
	cleaner Cleaner
	logger  logger.Logger
}

type StoreOption func(*Store)

func WithCleaner(c Cleaner) StoreOption {
	return func(s *Store) { s.cleaner = c }
}

func WithLogger(l logger.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

func NewStore(gw Gateway, opts ...StoreOption) *Store {
	s := &Store{gw: gw, logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===== Sets =====

func (s *Store) ListSets(ctx context.Context, ownerID string) ([]*models.Set, error) {
	recs, err := s.gw.ListByOwner(ctx, CollectionSets, ownerID)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionSets), err)
	}
	sets, err := decodeAll[models.Set](recs)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionSets), err)
	}
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].CreatedAt.Before(sets[j].CreatedAt) })
	return sets, nil
}

func (s *Store) GetSet(ctx context.Context, id string) (*models.Set, error) {
	set, found, err := getOne[models.Set](ctx, s.gw, CollectionSets, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewSetNotFoundError(id)
	}
	return set, nil
}

func (s *Store) PutSet(ctx context.Context, set *models.Set) error {
	return s.put(ctx, CollectionSets, set.ID, set.OwnerID, set)
}

func (s *Store) RemoveSet(ctx context.Context, id string) error {
	return s.withRetry(ctx, CollectionSets, func() error {
		return s.gw.Remove(ctx, CollectionSets, id)
	})
}

// ===== Projects =====

// ListProjects returns an owner's projects, cancelled included, by deal number.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]*models.Project, error) {
	recs, err := s.gw.ListByOwner(ctx, CollectionProjects, ownerID)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionProjects), err)
	}
	return decodeProjects(recs)
}

// AllProjects is the admin path.
func (s *Store) AllProjects(ctx context.Context) ([]*models.Project, error) {
	recs, err := s.gw.GetAll(ctx, CollectionProjects)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionProjects), err)
	}
	return decodeProjects(recs)
}

// ProjectsForOwners concatenates ListProjects for each owner.
func (s *Store) ProjectsForOwners(ctx context.Context, ownerIDs []string) ([]*models.Project, error) {
	var out []*models.Project
	for _, id := range ownerIDs {
		projects, err := s.ListProjects(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, projects...)
	}
	return out, nil
}

// CountProjects counts every project the owner has, cancelled included.
func (s *Store) CountProjects(ctx context.Context, ownerID string) (int, error) {
	recs, err := s.gw.ListByOwner(ctx, CollectionProjects, ownerID)
	if err != nil {
		return 0, errors.NewStorageReadFailedError(string(CollectionProjects), err)
	}
	return len(recs), nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, found, err := s.FindProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewProjectNotFoundError(id)
	}
	return p, nil
}

// FindProject is GetProject without the not-found error.
func (s *Store) FindProject(ctx context.Context, id string) (*models.Project, bool, error) {
	return getOne[models.Project](ctx, s.gw, CollectionProjects, id)
}

func (s *Store) PutProject(ctx context.Context, p *models.Project) error {
	return s.put(ctx, CollectionProjects, p.ID, p.OwnerID, p)
}

// ===== Sellers =====

func (s *Store) GetSeller(ctx context.Context, id string) (*models.SellerProfile, error) {
	seller, found, err := getOne[models.SellerProfile](ctx, s.gw, CollectionSellers, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewSellerNotFoundError(id)
	}
	return seller, nil
}

// PutSeller stores a profile. Profiles own themselves.
func (s *Store) PutSeller(ctx context.Context, p *models.SellerProfile) error {
	return s.put(ctx, CollectionSellers, p.ID, p.ID, p)
}

func (s *Store) AllSellers(ctx context.Context) ([]*models.SellerProfile, error) {
	recs, err := s.gw.GetAll(ctx, CollectionSellers)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionSellers), err)
	}
	sellers, err := decodeAll[models.SellerProfile](recs)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionSellers), err)
	}
	return sellers, nil
}

// TeamMembers lists every profile whose TeamID matches, the manager included.
func (s *Store) TeamMembers(ctx context.Context, teamID string) ([]*models.SellerProfile, error) {
	all, err := s.AllSellers(ctx)
	if err != nil {
		return nil, err
	}
	var members []*models.SellerProfile
	for _, p := range all {
		if teamID != "" && p.TeamID == teamID {
			members = append(members, p)
		}
	}
	return members, nil
}

// ===== write path =====

func (s *Store) put(ctx context.Context, c Collection, id, ownerID string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c, id, err)
	}
	if err := checkRecord(c, body); err != nil {
		return err
	}
	rec := Record{ID: id, OwnerID: ownerID, Body: body}
	return s.withRetry(ctx, c, func() error {
		return s.gw.Put(ctx, c, rec)
	})
}

// withRetry runs op, and on failure purges the cache and tries once more.
func (s *Store) withRetry(ctx context.Context, c Collection, op func() error) error {
	firstErr := op()
	if firstErr == nil {
		return nil
	}

	s.logger.Warn("Storage write rejected, running cleanup before retry", map[string]interface{}{
		"collection": string(c),
		"error":      firstErr.Error(),
	})
	if s.cleaner != nil {
		purged, err := s.cleaner.Purge(ctx)
		if err != nil {
			s.logger.Warn("Cleanup pass failed", map[string]interface{}{"error": err.Error()})
		} else {
			s.logger.Info("Cleanup pass completed", map[string]interface{}{"purgedKeys": purged})
		}
	}

	if err := op(); err != nil {
		metrics.StorageWriteRetries.WithLabelValues(string(c), "failed").Inc()
		s.logger.Error("Storage write failed after retry", map[string]interface{}{
			"collection": string(c),
			"error":      err.Error(),
		})
		return errors.NewStorageWriteFailedError(err)
	}
	metrics.StorageWriteRetries.WithLabelValues(string(c), "recovered").Inc()
	return nil
}

func checkRecord(c Collection, body json.RawMessage) error {
	v, ok := recordValidators[c]
	if !ok {
		return nil
	}
	result := v.Validate(body)
	if result.Valid {
		return nil
	}
	return errors.NewValidationFailedError(result.FieldErrors())
}

// ===== decoding =====

func getOne[T any](ctx context.Context, gw Gateway, c Collection, id string) (*T, bool, error) {
	rec, err := gw.Get(ctx, c, id)
	if stderrors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewStorageReadFailedError(string(c), err)
	}
	var v T
	if err := json.Unmarshal(rec.Body, &v); err != nil {
		return nil, false, errors.NewStorageReadFailedError(string(c), err)
	}
	return &v, true, nil
}

func decodeAll[T any](recs []Record) ([]*T, error) {
	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := json.Unmarshal(rec.Body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", rec.ID, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func decodeProjects(recs []Record) ([]*models.Project, error) {
	projects, err := decodeAll[models.Project](recs)
	if err != nil {
		return nil, errors.NewStorageReadFailedError(string(CollectionProjects), err)
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].DealNumber < projects[j].DealNumber })
	return projects, nil
}
