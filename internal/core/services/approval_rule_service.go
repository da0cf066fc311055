package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/google/uuid"
)

type approvalRuleService struct {
	ruleRepo    repositories.ApprovalRuleRepositoryFacade
	userRepo    repositories.UserReader
	companyRepo repositories.CompanyRepositoryFacade
}

// NewApprovalRuleService creates a new ApprovalRuleService.
func NewApprovalRuleService(ruleRepo repositories.ApprovalRuleRepositoryFacade, userRepo repositories.UserReader, companyRepo repositories.CompanyRepositoryFacade) portssvc.ApprovalRuleSvcFacade {
	return &approvalRuleService{
		ruleRepo:    ruleRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
	}
}

var _ portssvc.ApprovalRuleSvcFacade = (*approvalRuleService)(nil)

// GetRuleByID retrieves a rule scoped to the requesting user's company.
func (s *approvalRuleService) GetRuleByID(ctx context.Context, ruleID string, requestingUserID string) (*domain.ApprovalRule, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}

	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule %s: %w", ruleID, err)
	}
	if rule.CompanyID != requester.CompanyID {
		// Cross-company probing reads as absence, not as a permissions hint.
		return nil, fmt.Errorf("%w: rule %s not found", apperrors.ErrNotFound, ruleID)
	}
	return rule, nil
}

// ListRules retrieves all rules of the requesting user's company.
func (s *approvalRuleService) ListRules(ctx context.Context, requestingUserID string) ([]domain.ApprovalRule, error) {
	requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}

	rules, err := s.ruleRepo.FindRulesByCompany(ctx, requester.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules for company %s: %w", requester.CompanyID, err)
	}
	return rules, nil
}

// CreateRule validates and persists a new rule. Admin only.
func (s *approvalRuleService) CreateRule(ctx context.Context, req dto.CreateApprovalRuleRequest, creatorUserID string) (*domain.ApprovalRule, error) {
	creator, err := s.userRepo.FindUserByID(ctx, creatorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creating user: %w", err)
	}
	if !creator.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can manage approval rules", apperrors.ErrForbidden)
	}

	approvers, err := s.resolveAndValidate(ctx, ruleSpec{
		Name:                req.Name,
		Type:                req.Type,
		IsManagerApprover:   req.IsManagerApprover,
		Approvers:           req.Approvers,
		PercentageThreshold: req.PercentageThreshold,
		SpecificApproverID:  req.SpecificApproverID,
	}, creator.CompanyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rule := domain.ApprovalRule{
		RuleID:              uuid.NewString(),
		CompanyID:           creator.CompanyID,
		Name:                strings.TrimSpace(req.Name),
		Type:                req.Type,
		IsManagerApprover:   req.IsManagerApprover,
		Approvers:           approvers,
		PercentageThreshold: req.PercentageThreshold,
		SpecificApproverID:  req.SpecificApproverID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.ruleRepo.SaveRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Approval rule created", "rule_id", rule.RuleID, "rule_type", string(rule.Type))
	return &rule, nil
}

// UpdateRule validates and replaces a rule's definition wholesale. Admin
// only. Chains already built from the rule are snapshots and stay as they
// were.
func (s *approvalRuleService) UpdateRule(ctx context.Context, ruleID string, req dto.UpdateApprovalRuleRequest, updaterUserID string) (*domain.ApprovalRule, error) {
	updater, err := s.userRepo.FindUserByID(ctx, updaterUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get updating user: %w", err)
	}
	if !updater.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can manage approval rules", apperrors.ErrForbidden)
	}

	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule %s: %w", ruleID, err)
	}
	if rule.CompanyID != updater.CompanyID {
		return nil, fmt.Errorf("%w: rule %s not found", apperrors.ErrNotFound, ruleID)
	}

	approvers, err := s.resolveAndValidate(ctx, ruleSpec{
		Name:                req.Name,
		Type:                req.Type,
		IsManagerApprover:   req.IsManagerApprover,
		Approvers:           req.Approvers,
		PercentageThreshold: req.PercentageThreshold,
		SpecificApproverID:  req.SpecificApproverID,
	}, updater.CompanyID)
	if err != nil {
		return nil, err
	}

	rule.Name = strings.TrimSpace(req.Name)
	rule.Type = req.Type
	rule.IsManagerApprover = req.IsManagerApprover
	rule.Approvers = approvers
	rule.PercentageThreshold = req.PercentageThreshold
	rule.SpecificApproverID = req.SpecificApproverID
	rule.LastUpdatedAt = time.Now()
	rule.LastUpdatedBy = updaterUserID

	if err := s.ruleRepo.UpdateRule(ctx, *rule); err != nil {
		return nil, fmt.Errorf("failed to update rule %s: %w", ruleID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Approval rule updated", "rule_id", ruleID)
	return rule, nil
}

// DeleteRule removes a rule from the catalog. Admin only. In-flight expenses
// keep their snapshotted chains. When the company's default designation
// pointed at the deleted rule it is cleared first, so later submissions fall
// back to the empty chain.
func (s *approvalRuleService) DeleteRule(ctx context.Context, ruleID string, deleterUserID string) error {
	deleter, err := s.userRepo.FindUserByID(ctx, deleterUserID)
	if err != nil {
		return fmt.Errorf("failed to get deleting user: %w", err)
	}
	if !deleter.IsAdmin() {
		return fmt.Errorf("%w: only admins can manage approval rules", apperrors.ErrForbidden)
	}

	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("failed to get rule %s: %w", ruleID, err)
	}
	if rule.CompanyID != deleter.CompanyID {
		return fmt.Errorf("%w: rule %s not found", apperrors.ErrNotFound, ruleID)
	}

	company, err := s.companyRepo.FindCompanyByID(ctx, rule.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to get company %s: %w", rule.CompanyID, err)
	}
	if company.DefaultRuleID != nil && *company.DefaultRuleID == ruleID {
		if err := s.companyRepo.UpdateDefaultRule(ctx, company.CompanyID, nil, deleterUserID); err != nil {
			return fmt.Errorf("failed to clear default rule designation: %w", err)
		}
	}

	if err := s.ruleRepo.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", ruleID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Approval rule deleted", "rule_id", ruleID)
	return nil
}

// ruleSpec is the shared shape of create and update requests, so both pass
// through the same validation.
type ruleSpec struct {
	Name                string
	Type                domain.RuleType
	IsManagerApprover   bool
	Approvers           []dto.ApproverConfigRequest
	PercentageThreshold *int
	SpecificApproverID  *string
}

// resolveAndValidate checks every catalog invariant and resolves approver
// user IDs into configs with snapshotted names. All violations are collected
// and reported together rather than failing on the first.
func (s *approvalRuleService) resolveAndValidate(ctx context.Context, spec ruleSpec, companyID string) ([]domain.ApproverConfig, error) {
	var violations []string

	if strings.TrimSpace(spec.Name) == "" {
		violations = append(violations, "rule name must not be empty")
	}

	if len(spec.Approvers) == 0 {
		violations = append(violations, "a rule must configure at least one approver")
	}

	// Sequences must be unique and contiguous from 0.
	seqs := make([]int, 0, len(spec.Approvers))
	seen := make(map[int]bool, len(spec.Approvers))
	for _, a := range spec.Approvers {
		if seen[a.Sequence] {
			violations = append(violations, fmt.Sprintf("duplicate approver sequence %d", a.Sequence))
			continue
		}
		seen[a.Sequence] = true
		seqs = append(seqs, a.Sequence)
	}
	sort.Ints(seqs)
	for i, seq := range seqs {
		if seq != i {
			violations = append(violations, "approver sequences must be contiguous starting at 0")
			break
		}
	}

	switch spec.Type {
	case domain.RulePercentage, domain.RuleHybrid:
		if spec.PercentageThreshold == nil {
			violations = append(violations, fmt.Sprintf("%s rules require a percentage threshold", spec.Type))
		} else if *spec.PercentageThreshold < 1 || *spec.PercentageThreshold > 100 {
			violations = append(violations, "percentage threshold must be between 1 and 100")
		}
	}
	switch spec.Type {
	case domain.RuleSpecific, domain.RuleHybrid:
		if spec.SpecificApproverID == nil || *spec.SpecificApproverID == "" {
			violations = append(violations, fmt.Sprintf("%s rules require a specific approver", spec.Type))
		} else {
			found := false
			for _, a := range spec.Approvers {
				if a.UserID == *spec.SpecificApproverID {
					found = true
					break
				}
			}
			// The manager slot is bound per submitter at chain-build time,
			// so a rule with the manager flag may also designate a specific
			// approver that only materializes through that slot.
			if !found && !spec.IsManagerApprover {
				violations = append(violations, "specific approver must be one of the configured approvers")
			}
		}
	}

	approvers := make([]domain.ApproverConfig, 0, len(spec.Approvers))
	for _, a := range spec.Approvers {
		user, err := s.userRepo.FindUserByID(ctx, a.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				violations = append(violations, fmt.Sprintf("approver %s not found", a.UserID))
				continue
			}
			return nil, fmt.Errorf("failed to resolve approver %s: %w", a.UserID, err)
		}
		if user.CompanyID != companyID {
			violations = append(violations, fmt.Sprintf("approver %s belongs to a different company", a.UserID))
			continue
		}
		approvers = append(approvers, domain.ApproverConfig{
			UserID:   user.UserID,
			UserName: user.Name,
			Sequence: a.Sequence,
		})
	}

	if len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations)
	}
	return approvers, nil
}
