package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/expenseflow/expense_management_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CompanyRepository struct {
	db *pgxpool.Pool
}

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

var _ repositories.CompanyRepositoryFacade = (*CompanyRepository)(nil)

func (r *CompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `
        SELECT company_id, name, currency_code, country, default_rule_id,
               created_at, created_by, last_updated_at, last_updated_by
        FROM companies
        WHERE company_id = $1;
    `
	var company domain.Company
	err := r.db.QueryRow(ctx, query, companyID).Scan(
		&company.CompanyID,
		&company.Name,
		&company.CurrencyCode,
		&company.Country,
		&company.DefaultRuleID,
		&company.CreatedAt,
		&company.CreatedBy,
		&company.LastUpdatedAt,
		&company.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
		}
		return nil, fmt.Errorf("failed to find company by ID: %w", err)
	}
	return &company, nil
}

func (r *CompanyRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	query := `
        INSERT INTO companies (company_id, name, currency_code, country, default_rule_id,
                               created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
	_, err := r.db.Exec(ctx, query,
		company.CompanyID,
		company.Name,
		company.CurrencyCode,
		company.Country,
		company.DefaultRuleID,
		company.CreatedAt,
		company.CreatedBy,
		company.LastUpdatedAt,
		company.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (r *CompanyRepository) UpdateDefaultRule(ctx context.Context, companyID string, ruleID *string, updatedBy string) error {
	query := `
        UPDATE companies
        SET default_rule_id = $2, last_updated_at = $3, last_updated_by = $4
        WHERE company_id = $1;
    `
	tag, err := r.db.Exec(ctx, query, companyID, ruleID, time.Now(), updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update default rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}
	return nil
}
