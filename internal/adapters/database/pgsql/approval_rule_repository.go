package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApprovalRuleRepository struct {
	db *pgxpool.Pool
}

func NewApprovalRuleRepository(db *pgxpool.Pool) *ApprovalRuleRepository {
	return &ApprovalRuleRepository{db: db}
}

var _ repositories.ApprovalRuleRepositoryFacade = (*ApprovalRuleRepository)(nil)

func (r *ApprovalRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error) {
	query := `
        SELECT rule_id, company_id, name, rule_type, is_manager_approver,
               percentage_threshold, specific_approver_id,
               created_at, created_by, last_updated_at, last_updated_by
        FROM approval_rules
        WHERE rule_id = $1;
    `
	var rule domain.ApprovalRule
	err := r.db.QueryRow(ctx, query, ruleID).Scan(
		&rule.RuleID,
		&rule.CompanyID,
		&rule.Name,
		&rule.Type,
		&rule.IsManagerApprover,
		&rule.PercentageThreshold,
		&rule.SpecificApproverID,
		&rule.CreatedAt,
		&rule.CreatedBy,
		&rule.LastUpdatedAt,
		&rule.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule %s", apperrors.ErrNotFound, ruleID)
		}
		return nil, fmt.Errorf("failed to find rule by ID: %w", err)
	}

	approvers, err := r.loadApprovers(ctx, []string{ruleID})
	if err != nil {
		return nil, err
	}
	rule.Approvers = approvers[ruleID]
	return &rule, nil
}

func (r *ApprovalRuleRepository) FindRulesByCompany(ctx context.Context, companyID string) ([]domain.ApprovalRule, error) {
	query := `
        SELECT rule_id, company_id, name, rule_type, is_manager_approver,
               percentage_threshold, specific_approver_id,
               created_at, created_by, last_updated_at, last_updated_by
        FROM approval_rules
        WHERE company_id = $1
        ORDER BY created_at ASC;
    `
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query company rules: %w", err)
	}
	defer rows.Close()

	rules := []domain.ApprovalRule{}
	ruleIDs := []string{}
	for rows.Next() {
		var rule domain.ApprovalRule
		err := rows.Scan(
			&rule.RuleID,
			&rule.CompanyID,
			&rule.Name,
			&rule.Type,
			&rule.IsManagerApprover,
			&rule.PercentageThreshold,
			&rule.SpecificApproverID,
			&rule.CreatedAt,
			&rule.CreatedBy,
			&rule.LastUpdatedAt,
			&rule.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		rules = append(rules, rule)
		ruleIDs = append(ruleIDs, rule.RuleID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", rows.Err())
	}

	approvers, err := r.loadApprovers(ctx, ruleIDs)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		rules[i].Approvers = approvers[rules[i].RuleID]
	}
	return rules, nil
}

func (r *ApprovalRuleRepository) SaveRule(ctx context.Context, rule domain.ApprovalRule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
        INSERT INTO approval_rules (rule_id, company_id, name, rule_type, is_manager_approver,
                                    percentage_threshold, specific_approver_id,
                                    created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
    `
	_, err = tx.Exec(ctx, query,
		rule.RuleID,
		rule.CompanyID,
		rule.Name,
		rule.Type,
		rule.IsManagerApprover,
		rule.PercentageThreshold,
		rule.SpecificApproverID,
		rule.CreatedAt,
		rule.CreatedBy,
		rule.LastUpdatedAt,
		rule.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	if err := insertApprovers(ctx, tx, rule.RuleID, rule.Approvers); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rule save: %w", err)
	}
	return nil
}

func (r *ApprovalRuleRepository) UpdateRule(ctx context.Context, rule domain.ApprovalRule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
        UPDATE approval_rules
        SET name = $2, rule_type = $3, is_manager_approver = $4,
            percentage_threshold = $5, specific_approver_id = $6,
            last_updated_at = $7, last_updated_by = $8
        WHERE rule_id = $1;
    `
	tag, err := tx.Exec(ctx, query,
		rule.RuleID,
		rule.Name,
		rule.Type,
		rule.IsManagerApprover,
		rule.PercentageThreshold,
		rule.SpecificApproverID,
		rule.LastUpdatedAt,
		rule.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: rule %s", apperrors.ErrNotFound, rule.RuleID)
	}

	// Approver configs are replaced wholesale with the rule definition.
	if _, err := tx.Exec(ctx, `DELETE FROM approval_rule_approvers WHERE rule_id = $1;`, rule.RuleID); err != nil {
		return fmt.Errorf("failed to clear rule approvers: %w", err)
	}
	if err := insertApprovers(ctx, tx, rule.RuleID, rule.Approvers); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rule update: %w", err)
	}
	return nil
}

func (r *ApprovalRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	// Approver configs go with the rule via ON DELETE CASCADE. Expense
	// chains built from the rule are snapshots and hold no foreign key.
	tag, err := r.db.Exec(ctx, `DELETE FROM approval_rules WHERE rule_id = $1;`, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: rule %s", apperrors.ErrNotFound, ruleID)
	}
	return nil
}

func insertApprovers(ctx context.Context, tx pgx.Tx, ruleID string, approvers []domain.ApproverConfig) error {
	query := `
        INSERT INTO approval_rule_approvers (rule_id, user_id, user_name, sequence)
        VALUES ($1, $2, $3, $4);
    `
	for _, cfg := range approvers {
		if _, err := tx.Exec(ctx, query, ruleID, cfg.UserID, cfg.UserName, cfg.Sequence); err != nil {
			return fmt.Errorf("failed to save rule approver: %w", err)
		}
	}
	return nil
}

func (r *ApprovalRuleRepository) loadApprovers(ctx context.Context, ruleIDs []string) (map[string][]domain.ApproverConfig, error) {
	result := make(map[string][]domain.ApproverConfig, len(ruleIDs))
	if len(ruleIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT rule_id, user_id, user_name, sequence
        FROM approval_rule_approvers
        WHERE rule_id = ANY($1)
        ORDER BY rule_id, sequence ASC;
    `
	rows, err := r.db.Query(ctx, query, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule approvers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ruleID string
		var cfg domain.ApproverConfig
		if err := rows.Scan(&ruleID, &cfg.UserID, &cfg.UserName, &cfg.Sequence); err != nil {
			return nil, fmt.Errorf("failed to scan rule approver row: %w", err)
		}
		result[ruleID] = append(result[ruleID], cfg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating rule approver rows: %w", rows.Err())
	}
	return result, nil
}
