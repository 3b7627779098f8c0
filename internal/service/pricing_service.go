package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

// Порядок приоритета видов правил: от самого специфичного к общему.
var pricingPrecedence = []model.PricingRuleKind{
	model.PricingRuleTimeRange,
	model.PricingRuleDayOfWeek,
	model.PricingRuleUserType,
	model.PricingRuleDefault,
}

// PriceQuote — цена за единицу и правило, по которому она выбрана.
type PriceQuote struct {
	UnitPrice int64
	RuleID    uuid.UUID
	RuleKind  model.PricingRuleKind
}

// SelectPricingRule выбирает правило для начала интервала startAt.
// Сначала TIME_RANGE, затем DAY_OF_WEEK, USER_TYPE и DEFAULT; внутри вида
// побеждает правило, созданное последним. Неактивные правила пропускаются.
func SelectPricingRule(
	rules []model.PricingRule,
	startAt time.Time,
	category model.UserCategory,
	loc *time.Location,
) (*model.PricingRule, bool) {
	sorted := make([]model.PricingRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	clock := calendar.ClockOf(startAt, loc)
	weekday := int(calendar.DateOf(startAt, loc).Weekday())

	for _, kind := range pricingPrecedence {
		for i := range sorted {
			r := &sorted[i]
			if !r.IsActive || r.Kind != kind {
				continue
			}
			if ruleMatches(r, clock, weekday, category) {
				return r, true
			}
		}
	}
	return nil, false
}

func ruleMatches(r *model.PricingRule, clock calendar.Clock, weekday int, category model.UserCategory) bool {
	switch r.Kind {
	case model.PricingRuleTimeRange:
		if r.StartTime == nil || r.EndTime == nil {
			return false
		}
		return clockOf(*r.StartTime) <= clock && clock < clockOf(*r.EndTime)
	case model.PricingRuleDayOfWeek:
		return r.DayOfWeek != nil && *r.DayOfWeek == weekday
	case model.PricingRuleUserType:
		return r.UserCategory != nil && *r.UserCategory == category
	case model.PricingRuleDefault:
		return true
	}
	return false
}

type PricingService struct {
	deps Deps
}

func NewPricingService(deps Deps) *PricingService {
	return &PricingService{deps: deps.withDefaults()}
}

// ResolveUnitPrice возвращает цену за единицу для ресурса, начала и категории пользователя.
func (s *PricingService) ResolveUnitPrice(
	ctx context.Context,
	resourceID uuid.UUID,
	startAt time.Time,
	category model.UserCategory,
) (PriceQuote, error) {
	return resolveUnitPrice(ctx, s.deps.Repo.Pricing, s.deps.Location, resourceID, startAt, category)
}

// resolveUnitPrice работает на переданном репозитории, чтобы внутри транзакции
// бронирования цена читалась в той же транзакции.
func resolveUnitPrice(
	ctx context.Context,
	repo repository.PricingRepository,
	loc *time.Location,
	resourceID uuid.UUID,
	startAt time.Time,
	category model.UserCategory,
) (PriceQuote, error) {
	rules, err := repo.ListActiveByResource(ctx, resourceID)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("load pricing rules: %w", err)
	}
	rule, ok := SelectPricingRule(rules, startAt, category, loc)
	if !ok {
		return PriceQuote{}, ErrNoPricingRule.
			WithDetail("resourceId", resourceID).
			WithDetail("startAt", startAt.UTC())
	}
	return PriceQuote{UnitPrice: rule.Price, RuleID: rule.ID, RuleKind: rule.Kind}, nil
}

type PricingRuleInput struct {
	ResourceID   uuid.UUID
	Kind         model.PricingRuleKind
	Price        int64
	StartTime    *calendar.Clock
	EndTime      *calendar.Clock
	DayOfWeek    *int
	UserCategory *model.UserCategory
}

// CreateRule проверяет поля по виду правила. Поля других видов отбрасываются.
func (s *PricingService) CreateRule(ctx context.Context, in PricingRuleInput) (*model.PricingRule, error) {
	if in.Price < 0 {
		return nil, invalid("price must not be negative")
	}
	if _, err := loadBookableResource(ctx, s.deps.Repo.Resources, in.ResourceID); err != nil {
		return nil, err
	}

	rule := &model.PricingRule{
		ResourceID: in.ResourceID,
		Kind:       in.Kind,
		Price:      in.Price,
		IsActive:   true,
	}

	switch in.Kind {
	case model.PricingRuleDefault:
	case model.PricingRuleTimeRange:
		if in.StartTime == nil || in.EndTime == nil {
			return nil, invalid("TIME_RANGE rule needs startTime and endTime")
		}
		if *in.StartTime >= *in.EndTime {
			return nil, invalid("startTime must be before endTime")
		}
		start, end := timeOf(*in.StartTime), timeOf(*in.EndTime)
		rule.StartTime, rule.EndTime = &start, &end
	case model.PricingRuleDayOfWeek:
		if in.DayOfWeek == nil || *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
			return nil, invalid("DAY_OF_WEEK rule needs dayOfWeek 0..6")
		}
		dow := *in.DayOfWeek
		rule.DayOfWeek = &dow
	case model.PricingRuleUserType:
		if in.UserCategory == nil ||
			(*in.UserCategory != model.UserCategoryPersonal && *in.UserCategory != model.UserCategoryBusiness) {
			return nil, invalid("USER_TYPE rule needs userType PERSONAL or BUSINESS")
		}
		cat := *in.UserCategory
		rule.UserCategory = &cat
	default:
		return nil, invalid("unknown pricing rule kind")
	}

	if err := s.deps.Repo.Pricing.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create pricing rule: %w", err)
	}
	return rule, nil
}

func (s *PricingService) ListRules(ctx context.Context, resourceID uuid.UUID, includeInactive bool) ([]model.PricingRule, error) {
	list, err := s.deps.Repo.Pricing.ListByResource(ctx, resourceID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	return list, nil
}

func (s *PricingService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	ok, err := s.deps.Repo.Pricing.SetActive(ctx, id, active)
	if err != nil {
		return fmt.Errorf("update pricing rule: %w", err)
	}
	if !ok {
		return apperr.NotFound(CodePricingRuleNotFound, "pricing rule not found")
	}
	return nil
}

func (s *PricingService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	ok, err := s.deps.Repo.Pricing.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete pricing rule: %w", err)
	}
	if !ok {
		return apperr.NotFound(CodePricingRuleNotFound, "pricing rule not found")
	}
	return nil
}
