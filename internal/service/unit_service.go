package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/repository"
)

var (
	ErrUnitNotFound            = errors.New("unit not found")
	ErrSpaceNotFound           = errors.New("space not found")
	ErrResourceNotFound        = errors.New("resource not found")
	ErrReservationUnitNotFound = errors.New("reservation unit not found")
	ErrSpaceCycle              = errors.New("space cannot be its own ancestor")
)

// UnitService unit/space/resource administration business interface.
// Every topology mutation ends with an affecting-pair rebuild so the
// materialized blocking relationships never go stale.
type UnitService interface {
	CreateUnit(ctx context.Context, rc *permission.RoleContext, req *dto.CreateUnitRequest) (*dto.UnitResponse, error)
	ListUnits(ctx context.Context) ([]dto.UnitResponse, error)
	CreateUnitGroup(ctx context.Context, rc *permission.RoleContext, req *dto.CreateUnitGroupRequest) (*dto.UnitGroupResponse, error)
	ListUnitGroups(ctx context.Context) ([]dto.UnitGroupResponse, error)

	CreateSpace(ctx context.Context, rc *permission.RoleContext, req *dto.CreateSpaceRequest) (*dto.SpaceResponse, error)
	UpdateSpaceParent(ctx context.Context, rc *permission.RoleContext, spaceID string, parentSpaceID *string) error
	DeleteSpace(ctx context.Context, rc *permission.RoleContext, spaceID string) error

	CreateResource(ctx context.Context, rc *permission.RoleContext, req *dto.CreateResourceRequest) (*dto.ResourceResponse, error)
	DeleteResource(ctx context.Context, rc *permission.RoleContext, resourceID string) error

	CreateReservationUnit(ctx context.Context, rc *permission.RoleContext, req *dto.CreateReservationUnitRequest) (*dto.ReservationUnitResponse, error)
	ListReservationUnits(ctx context.Context) ([]dto.ReservationUnitResponse, error)
	ArchiveReservationUnit(ctx context.Context, rc *permission.RoleContext, id string) error

	RebuildAffectingPairs(ctx context.Context) (int, error)
}

type unitService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUnitService creates a UnitService instance.
func NewUnitService(repo *repository.Repository, logger *zap.Logger) UnitService {
	return &unitService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════════════
// units and unit groups
// ════════════════════════════════════════════════════════════════════

func (s *unitService) CreateUnit(ctx context.Context, rc *permission.RoleContext, req *dto.CreateUnitRequest) (*dto.UnitResponse, error) {
	if !permission.CanManageUnit(rc, nil) {
		return nil, ErrPermissionDenied
	}

	unit := &model.Unit{Name: req.Name}
	if err := s.repo.Unit.Create(ctx, unit); err != nil {
		s.logger.Error("failed to create unit", zap.Error(err))
		return nil, err
	}
	return &dto.UnitResponse{ID: unit.UnitID, Name: unit.Name}, nil
}

func (s *unitService) ListUnits(ctx context.Context) ([]dto.UnitResponse, error) {
	units, err := s.repo.Unit.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UnitResponse, 0, len(units))
	for _, unit := range units {
		resp = append(resp, dto.UnitResponse{ID: unit.UnitID, Name: unit.Name})
	}
	return resp, nil
}

func (s *unitService) CreateUnitGroup(ctx context.Context, rc *permission.RoleContext, req *dto.CreateUnitGroupRequest) (*dto.UnitGroupResponse, error) {
	if !permission.CanManageUnit(rc, nil) {
		return nil, ErrPermissionDenied
	}

	group := &model.UnitGroup{Name: req.Name}
	if err := s.repo.UnitGroup.Create(ctx, group, req.UnitIDs); err != nil {
		s.logger.Error("failed to create unit group", zap.Error(err))
		return nil, err
	}
	return &dto.UnitGroupResponse{ID: group.UnitGroupID, Name: group.Name, UnitIDs: req.UnitIDs}, nil
}

func (s *unitService) ListUnitGroups(ctx context.Context) ([]dto.UnitGroupResponse, error) {
	groups, err := s.repo.UnitGroup.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UnitGroupResponse, 0, len(groups))
	for _, group := range groups {
		g := dto.UnitGroupResponse{ID: group.UnitGroupID, Name: group.Name}
		for _, unit := range group.Units {
			g.UnitIDs = append(g.UnitIDs, unit.UnitID)
		}
		resp = append(resp, g)
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════════════
// spaces and resources
// ════════════════════════════════════════════════════════════════════

func (s *unitService) CreateSpace(ctx context.Context, rc *permission.RoleContext, req *dto.CreateSpaceRequest) (*dto.SpaceResponse, error) {
	if !permission.CanManageSpaces(rc, &req.UnitID) {
		return nil, ErrPermissionDenied
	}

	space := &model.Space{
		UnitID:        req.UnitID,
		ParentSpaceID: req.ParentSpaceID,
		Name:          req.Name,
	}
	if err := s.repo.Space.Create(ctx, space); err != nil {
		s.logger.Error("failed to create space", zap.Error(err))
		return nil, err
	}

	if _, err := s.RebuildAffectingPairs(ctx); err != nil {
		return nil, err
	}
	return &dto.SpaceResponse{
		ID:            space.SpaceID,
		UnitID:        space.UnitID,
		ParentSpaceID: space.ParentSpaceID,
		Name:          space.Name,
	}, nil
}

func (s *unitService) UpdateSpaceParent(ctx context.Context, rc *permission.RoleContext, spaceID string, parentSpaceID *string) error {
	space, err := s.repo.Space.GetByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpaceNotFound
		}
		return err
	}
	if !permission.CanManageSpaces(rc, &space.UnitID) {
		return ErrPermissionDenied
	}

	if parentSpaceID != nil {
		if err := s.checkNoCycle(ctx, spaceID, *parentSpaceID); err != nil {
			return err
		}
	}

	space.ParentSpaceID = parentSpaceID
	if err := s.repo.Space.Update(ctx, space); err != nil {
		return err
	}
	_, err = s.RebuildAffectingPairs(ctx)
	return err
}

// checkNoCycle walks up from the proposed parent; reaching the space itself
// would create a loop in the tree.
func (s *unitService) checkNoCycle(ctx context.Context, spaceID, parentID string) error {
	cur := parentID
	for cur != "" {
		if cur == spaceID {
			return ErrSpaceCycle
		}
		parent, err := s.repo.Space.GetByID(ctx, cur)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSpaceNotFound
			}
			return err
		}
		if parent.ParentSpaceID == nil {
			return nil
		}
		cur = *parent.ParentSpaceID
	}
	return nil
}

func (s *unitService) DeleteSpace(ctx context.Context, rc *permission.RoleContext, spaceID string) error {
	space, err := s.repo.Space.GetByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpaceNotFound
		}
		return err
	}
	if !permission.CanManageSpaces(rc, &space.UnitID) {
		return ErrPermissionDenied
	}

	if err := s.repo.Space.Delete(ctx, spaceID); err != nil {
		return err
	}
	_, err = s.RebuildAffectingPairs(ctx)
	return err
}

func (s *unitService) CreateResource(ctx context.Context, rc *permission.RoleContext, req *dto.CreateResourceRequest) (*dto.ResourceResponse, error) {
	unitID, err := s.resourceUnitID(ctx, req.SpaceID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageResources(rc, unitID) {
		return nil, ErrPermissionDenied
	}

	resource := &model.Resource{SpaceID: req.SpaceID, Name: req.Name}
	if err := s.repo.Resource.Create(ctx, resource); err != nil {
		s.logger.Error("failed to create resource", zap.Error(err))
		return nil, err
	}

	if _, err := s.RebuildAffectingPairs(ctx); err != nil {
		return nil, err
	}
	return &dto.ResourceResponse{ID: resource.ResourceID, SpaceID: resource.SpaceID, Name: resource.Name}, nil
}

func (s *unitService) DeleteResource(ctx context.Context, rc *permission.RoleContext, resourceID string) error {
	resource, err := s.repo.Resource.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		return err
	}
	unitID, err := s.resourceUnitID(ctx, resource.SpaceID)
	if err != nil {
		return err
	}
	if !permission.CanManageResources(rc, unitID) {
		return ErrPermissionDenied
	}

	if err := s.repo.Resource.Delete(ctx, resourceID); err != nil {
		return err
	}
	_, err = s.RebuildAffectingPairs(ctx)
	return err
}

// resourceUnitID resolves a resource's owning unit through its space.
func (s *unitService) resourceUnitID(ctx context.Context, spaceID *string) (*string, error) {
	if spaceID == nil {
		return nil, nil
	}
	space, err := s.repo.Space.GetByID(ctx, *spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpaceNotFound
		}
		return nil, err
	}
	return &space.UnitID, nil
}

// ════════════════════════════════════════════════════════════════════
// reservation units
// ════════════════════════════════════════════════════════════════════

func (s *unitService) CreateReservationUnit(ctx context.Context, rc *permission.RoleContext, req *dto.CreateReservationUnitRequest) (*dto.ReservationUnitResponse, error) {
	if !permission.CanManageUnit(rc, &req.UnitID) {
		return nil, ErrPermissionDenied
	}

	ru := &model.ReservationUnit{UnitID: req.UnitID, Name: req.Name}
	if err := s.repo.ReservationUnit.Create(ctx, ru, req.SpaceIDs, req.ResourceIDs); err != nil {
		s.logger.Error("failed to create reservation unit", zap.Error(err))
		return nil, err
	}

	if _, err := s.RebuildAffectingPairs(ctx); err != nil {
		return nil, err
	}
	return &dto.ReservationUnitResponse{
		ID:          ru.ReservationUnitID,
		UnitID:      ru.UnitID,
		Name:        ru.Name,
		SpaceIDs:    req.SpaceIDs,
		ResourceIDs: req.ResourceIDs,
	}, nil
}

func (s *unitService) ListReservationUnits(ctx context.Context) ([]dto.ReservationUnitResponse, error) {
	rus, err := s.repo.ReservationUnit.List(ctx, false)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ReservationUnitResponse, 0, len(rus))
	for _, ru := range rus {
		resp = append(resp, dto.ReservationUnitResponse{
			ID:         ru.ReservationUnitID,
			UnitID:     ru.UnitID,
			Name:       ru.Name,
			IsArchived: ru.IsArchived,
		})
	}
	return resp, nil
}

func (s *unitService) ArchiveReservationUnit(ctx context.Context, rc *permission.RoleContext, id string) error {
	ru, err := s.repo.ReservationUnit.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationUnitNotFound
		}
		return err
	}
	if !permission.CanManageUnit(rc, &ru.UnitID) {
		return ErrPermissionDenied
	}
	return s.repo.ReservationUnit.Archive(ctx, id)
}

// ════════════════════════════════════════════════════════════════════
// affecting-pair rebuild
// ════════════════════════════════════════════════════════════════════

// RebuildAffectingPairs recomputes the materialized blocking relationships
// between reservation units from the current space tree and resource
// attachments. Two units affect each other when they share a resource or
// when one unit holds a space on the other's chain (a space plus its
// ancestors and descendants). Expanding only one side keeps siblings under
// a common parent independent. The result is symmetric; self pairs are not
// stored.
func (s *unitService) RebuildAffectingPairs(ctx context.Context) (int, error) {
	rus, err := s.repo.ReservationUnit.ListAllWithTopology(ctx)
	if err != nil {
		return 0, err
	}
	spaces, err := s.repo.Space.List(ctx)
	if err != nil {
		return 0, err
	}

	closure := spaceClosures(spaces)

	type topo struct {
		id        string
		spaces    map[string]bool
		chain     map[string]bool
		resources map[string]bool
	}
	topos := make([]topo, 0, len(rus))
	for _, ru := range rus {
		t := topo{
			id:        ru.ReservationUnitID,
			spaces:    make(map[string]bool),
			chain:     make(map[string]bool),
			resources: make(map[string]bool),
		}
		for _, space := range ru.Spaces {
			t.spaces[space.SpaceID] = true
			for id := range closure[space.SpaceID] {
				t.chain[id] = true
			}
		}
		for _, resource := range ru.Resources {
			t.resources[resource.ResourceID] = true
		}
		topos = append(topos, t)
	}

	var pairs []model.AffectingReservationUnit
	for i := 0; i < len(topos); i++ {
		for j := i + 1; j < len(topos); j++ {
			if !setsIntersect(topos[i].spaces, topos[j].chain) &&
				!setsIntersect(topos[j].spaces, topos[i].chain) &&
				!setsIntersect(topos[i].resources, topos[j].resources) {
				continue
			}
			pairs = append(pairs,
				model.AffectingReservationUnit{ReservationUnitID: topos[i].id, AffectingUnitID: topos[j].id},
				model.AffectingReservationUnit{ReservationUnitID: topos[j].id, AffectingUnitID: topos[i].id},
			)
		}
	}

	if err := s.repo.AffectingUnit.ReplaceAll(ctx, pairs); err != nil {
		s.logger.Error("failed to rebuild affecting pairs", zap.Error(err))
		return 0, err
	}
	s.logger.Info("rebuilt affecting reservation unit pairs", zap.Int("pairs", len(pairs)))
	return len(pairs), nil
}

// spaceClosures maps every space id to the set of space ids in its chain:
// the space itself, its ancestors and its descendants.
func spaceClosures(spaces []model.Space) map[string]map[string]bool {
	parent := make(map[string]string, len(spaces))
	children := make(map[string][]string, len(spaces))
	for _, space := range spaces {
		if space.ParentSpaceID != nil {
			parent[space.SpaceID] = *space.ParentSpaceID
			children[*space.ParentSpaceID] = append(children[*space.ParentSpaceID], space.SpaceID)
		}
	}

	closures := make(map[string]map[string]bool, len(spaces))
	for _, space := range spaces {
		set := map[string]bool{space.SpaceID: true}

		// ancestors
		cur := space.SpaceID
		for {
			p, ok := parent[cur]
			if !ok || set[p] {
				break
			}
			set[p] = true
			cur = p
		}

		// descendants
		queue := append([]string(nil), children[space.SpaceID]...)
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if set[id] {
				continue
			}
			set[id] = true
			queue = append(queue, children[id]...)
		}

		closures[space.SpaceID] = set
	}
	return closures
}

func setsIntersect(a, b map[string]bool) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for id := range a {
		if b[id] {
			return true
		}
	}
	return false
}
