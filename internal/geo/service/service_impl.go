package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/geo/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Audit auditdomain.Recorder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	audit auditdomain.Recorder
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("geo.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.GeoNode, error) {
	level := domain.Level(strings.ToLower(strings.TrimSpace(req.Level)))
	if level.Depth() < 0 {
		return domain.GeoNode{}, domain.ErrInvalidLevel
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.GeoNode{}, domain.ErrInvalidName
	}

	code, err := normalizeCode(level, req.Code)
	if err != nil {
		return domain.GeoNode{}, err
	}

	var parentID *snowflake.ID
	if raw := strings.TrimSpace(req.ParentID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.GeoNode{}, domain.ErrInvalidParent
		}
		parentID = &id
	}

	node := domain.GeoNode{
		ID:        s.genID.Generate(),
		Level:     level,
		Name:      name,
		Code:      code,
		ParentID:  parentID,
		CreatedAt: s.clock.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkParent(ctx, tx, level, parentID); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &node); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrCodeTaken
			}
			return dbpkg.Wrap("geo.insert", err)
		}
		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "geo_node",
			EntityID:   node.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail: map[string]any{
				"level":     string(node.Level),
				"name":      node.Name,
				"parent_id": idString(node.ParentID),
			},
		})
		return nil
	})
	if err != nil {
		return domain.GeoNode{}, err
	}
	return node, nil
}

// checkParent enforces that a node hangs exactly one level below its parent.
func (s *Service) checkParent(ctx context.Context, tx *gorm.DB, level domain.Level, parentID *snowflake.ID) error {
	if level == domain.LevelDepartment {
		if parentID != nil {
			return domain.ErrInvalidParent
		}
		return nil
	}
	if parentID == nil {
		return domain.ErrInvalidParent
	}
	parent, err := s.repo.FindByID(ctx, tx, *parentID)
	if err != nil {
		return dbpkg.Wrap("geo.find_parent", err)
	}
	if parent == nil || parent.Level.Depth() != level.Depth()-1 {
		return domain.ErrInvalidParent
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.GeoNode, error) {
	nodeID, err := parseID(id)
	if err != nil {
		return domain.GeoNode{}, domain.ErrInvalidID
	}
	node, err := s.repo.FindByID(ctx, s.db, nodeID)
	if err != nil {
		return domain.GeoNode{}, dbpkg.Wrap("geo.find", err)
	}
	if node == nil {
		return domain.GeoNode{}, domain.ErrNotFound
	}
	return *node, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.GeoNode, error) {
	level := domain.Level(strings.ToLower(strings.TrimSpace(req.Level)))
	if level != "" && level.Depth() < 0 {
		return nil, domain.ErrInvalidLevel
	}

	var parentID *snowflake.ID
	if raw := strings.TrimSpace(req.ParentID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, domain.ErrInvalidParent
		}
		parentID = &id
	}

	nodes, err := s.repo.List(ctx, s.db, level, parentID)
	if err != nil {
		return nil, dbpkg.Wrap("geo.list", err)
	}
	return nodes, nil
}

func (s *Service) Ancestors(ctx context.Context, id string) ([]domain.GeoNode, error) {
	tree, nodeID, err := s.loadTree(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	chain, ok := tree.Ancestors(nodeID)
	if !ok {
		s.log.Warn("broken ancestor chain", zap.String("geo_node_id", id))
	}
	return chain, nil
}

func (s *Service) Descendants(ctx context.Context, id string) ([]domain.GeoNode, error) {
	tree, nodeID, err := s.loadTree(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return tree.Descendants(nodeID), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tree, nodeID, err := s.loadTree(ctx, tx, id)
		if err != nil {
			return err
		}

		subtree := tree.Subtree(nodeID)
		zoneIDs := make([]snowflake.ID, 0, len(subtree))
		for _, childID := range subtree {
			if node, _ := tree.Get(childID); node.Level == domain.LevelZone {
				zoneIDs = append(zoneIDs, childID)
			}
		}

		clients, err := s.repo.CountClientsInZones(ctx, tx, zoneIDs)
		if err != nil {
			return dbpkg.Wrap("geo.count_clients", err)
		}
		if clients > 0 {
			return domain.ErrHasDependents
		}

		if err := s.repo.DeleteTariffsForZones(ctx, tx, zoneIDs); err != nil {
			return dbpkg.Wrap("geo.delete_tariffs", err)
		}
		deleted, err := s.repo.DeleteByIDs(ctx, tx, subtree)
		if err != nil {
			return dbpkg.Wrap("geo.delete", err)
		}

		s.audit.Record(ctx, tx, auditdomain.Event{
			EntityName: "geo_node",
			EntityID:   nodeID.String(),
			Action:     auditdomain.ActionDelete,
			Detail: map[string]any{
				"deleted_nodes": deleted,
				"deleted_zones": len(zoneIDs),
			},
		})
		return nil
	})
}

func (s *Service) ZoneExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	if db == nil {
		db = s.db
	}
	node, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return false, dbpkg.Wrap("geo.find_zone", err)
	}
	return node != nil && node.Level == domain.LevelZone, nil
}

func (s *Service) loadTree(ctx context.Context, db *gorm.DB, id string) (*domain.Tree, snowflake.ID, error) {
	nodeID, err := parseID(id)
	if err != nil {
		return nil, 0, domain.ErrInvalidID
	}
	nodes, err := s.repo.ListAll(ctx, db)
	if err != nil {
		return nil, 0, dbpkg.Wrap("geo.list_all", err)
	}
	tree := domain.NewTree(nodes)
	if _, ok := tree.Get(nodeID); !ok {
		return nil, 0, domain.ErrNotFound
	}
	return tree, nodeID, nil
}

func normalizeCode(level domain.Level, raw string) (*string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if level != domain.LevelZone {
		if code != "" {
			return nil, domain.ErrInvalidCode
		}
		return nil, nil
	}
	if code == "" || len(code) > domain.MaxZoneCodeLength {
		return nil, domain.ErrInvalidCode
	}
	return &code, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func idString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
