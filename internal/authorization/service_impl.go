package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	actor, ok := actorcontext.FromContext(ctx)
	if !ok {
		return ErrInvalidActor
	}
	subject, roleName, err := resolveActor(actor)
	if err != nil {
		return err
	}
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization.denied",
			zap.String("subject", subject),
			zap.String("role", actor.Role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func resolveActor(actor actorcontext.Actor) (string, string, error) {
	switch actor.Role {
	case actorcontext.RoleSystem:
		return "system", "role:system", nil
	case actorcontext.RoleAdmin, actorcontext.RoleOffice, actorcontext.RoleCollector, actorcontext.RoleManager:
	default:
		return "", "", ErrInvalidActor
	}
	if actor.ID == 0 {
		return "", "", ErrInvalidActor
	}
	return fmt.Sprintf("user:%s", actor.ID.String()), fmt.Sprintf("role:%s", actor.Role), nil
}

// ensureGrouping keeps exactly one role link per subject; a user whose role
// changed upstream loses the previous one.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Admin: everything
		{"role:admin", ObjectGeo, "*"},
		{"role:admin", ObjectSede, "*"},
		{"role:admin", ObjectClient, "*"},
		{"role:admin", ObjectTariff, "*"},
		{"role:admin", ObjectBillingCycle, "*"},
		{"role:admin", ObjectDebt, "*"},
		{"role:admin", ObjectPayment, "*"},
		{"role:admin", ObjectVisit, "*"},
		{"role:admin", ObjectReport, "*"},
		{"role:admin", ObjectAuditLog, "*"},

		// Office staff
		{"role:oficina", ObjectGeo, ActionView},
		{"role:oficina", ObjectSede, ActionView},
		{"role:oficina", ObjectClient, ActionView},
		{"role:oficina", ObjectClient, ActionManage},
		{"role:oficina", ObjectTariff, ActionView},
		{"role:oficina", ObjectBillingCycle, ActionView},
		{"role:oficina", ObjectBillingCycle, ActionBillingCycleGenerate},
		{"role:oficina", ObjectDebt, ActionView},
		{"role:oficina", ObjectDebt, ActionDebtSweep},
		{"role:oficina", ObjectPayment, ActionView},
		{"role:oficina", ObjectPayment, ActionPaymentSubmit},
		{"role:oficina", ObjectPayment, ActionPaymentValidate},
		{"role:oficina", ObjectPayment, ActionPaymentCancel},
		{"role:oficina", ObjectPayment, ActionPaymentReceipt},
		{"role:oficina", ObjectVisit, ActionView},
		{"role:oficina", ObjectReport, ActionView},
		{"role:oficina", ObjectReport, ActionReportCollectors},

		// Collectors see only their assigned clients; services scope the rows.
		{"role:cobrador", ObjectGeo, ActionView},
		{"role:cobrador", ObjectTariff, ActionView},
		{"role:cobrador", ObjectClient, ActionView},
		{"role:cobrador", ObjectDebt, ActionView},
		{"role:cobrador", ObjectPayment, ActionView},
		{"role:cobrador", ObjectPayment, ActionPaymentSubmit},
		{"role:cobrador", ObjectPayment, ActionPaymentReceipt},
		{"role:cobrador", ObjectVisit, ActionView},
		{"role:cobrador", ObjectVisit, ActionVisitRecord},

		// Management
		{"role:gerencia", ObjectGeo, ActionView},
		{"role:gerencia", ObjectSede, ActionView},
		{"role:gerencia", ObjectClient, ActionView},
		{"role:gerencia", ObjectTariff, ActionView},
		{"role:gerencia", ObjectBillingCycle, ActionView},
		{"role:gerencia", ObjectDebt, ActionView},
		{"role:gerencia", ObjectPayment, ActionView},
		{"role:gerencia", ObjectVisit, ActionView},
		{"role:gerencia", ObjectReport, ActionView},

		// Scheduled jobs
		{"role:system", ObjectBillingCycle, ActionBillingCycleGenerate},
		{"role:system", ObjectDebt, ActionDebtSweep},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
