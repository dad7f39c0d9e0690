package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/search"
	"github.com/shopspring/decimal"
)

// CatalogStorage описывает методы для работы с каталогом ароматов и справочниками.
type CatalogStorage interface {
	ListBrands(ctx context.Context) ([]*models.Brand, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	ListGenders(ctx context.Context) ([]*models.Gender, error)
	// SearchPerfumes применяет текстовые критерии и фильтры справочников
	SearchPerfumes(ctx context.Context, criteria search.Criteria, filter models.PerfumeFilter) ([]*models.Perfume, error)
	FilterPerfumes(ctx context.Context, selection models.ProductSelection) ([]*models.Perfume, error)
	GetPerfume(ctx context.Context, id int64) (*models.Perfume, error)
	UpdatePerfume(ctx context.Context, perfume *models.Perfume) error
	DeletePerfume(ctx context.Context, id int64) error
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogStorage {
	return &catalogRepository{db: db}
}

// диапазон цен считается агрегатом по предложениям, в таблице perfumes его нет
const perfumeSelect = `
		SELECT p.id, p.user_id, p.name, p.price, p.description, p.type, p.first_note, p.heart_note, p.last_note,
		       p.image, p.created_at, p.updated_at, b.id, b.name, c.id, c.name, g.id, g.name,
		       MIN(o.price_per_ml), MAX(o.price_per_ml)
		FROM perfumes p
		JOIN brands b ON p.brand_id = b.id
		JOIN categories c ON p.category_id = c.id
		JOIN genders g ON p.gender_id = g.id
		LEFT JOIN offers o ON o.perfume_id = p.id`

const perfumeGroupBy = `
		GROUP BY p.id, b.id, c.id, g.id
		ORDER BY p.id`

func scanPerfume(row rowScanner) (*models.Perfume, error) {
	p := &models.Perfume{}
	var price, minPrice, maxPrice decimal.NullDecimal
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &price, &p.Description, &p.Type, &p.FirstNote, &p.HeartNote, &p.LastNote,
		&p.Image, &p.CreatedAt, &p.UpdatedAt, &p.Brand.ID, &p.Brand.Name, &p.Category.ID, &p.Category.Name,
		&p.Gender.ID, &p.Gender.Name, &minPrice, &maxPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPerfumeNotFound
		}
		return nil, err
	}
	if price.Valid {
		p.Price = &price.Decimal
	}
	if minPrice.Valid {
		p.PriceRange.Min = &minPrice.Decimal
	}
	if maxPrice.Valid {
		p.PriceRange.Max = &maxPrice.Decimal
	}
	return p, nil
}

// whereBuilder собирает условия WHERE с позиционными параметрами postgres
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "\n\t\tWHERE " + strings.Join(w.conds, " AND ")
}

var searchableColumns = []string{"p.name", "p.description", "p.first_note", "p.heart_note", "p.last_note"}

// textPredicate переводит критерии поиска в SQL: нормализованное название ИЛИ любой фрагмент в любом поле
func (w *whereBuilder) textPredicate(criteria search.Criteria) {
	if criteria.Empty() {
		return
	}
	ors := []string{fmt.Sprintf("STRPOS(LOWER(REPLACE(p.name, ' ', '')), %s) > 0", w.arg(criteria.Normalized))}
	for _, fragment := range criteria.Fragments {
		placeholder := w.arg(strings.ToLower(fragment))
		for _, column := range searchableColumns {
			ors = append(ors, fmt.Sprintf("STRPOS(LOWER(%s), %s) > 0", column, placeholder))
		}
	}
	w.add("(" + strings.Join(ors, " OR ") + ")")
}

func (r *catalogRepository) SearchPerfumes(ctx context.Context, criteria search.Criteria, filter models.PerfumeFilter) ([]*models.Perfume, error) {
	w := &whereBuilder{}
	w.textPredicate(criteria)
	if filter.CategoryID != nil {
		w.add("p.category_id = " + w.arg(*filter.CategoryID))
	}
	if filter.BrandID != nil {
		w.add("p.brand_id = " + w.arg(*filter.BrandID))
	}
	if filter.GenderID != nil {
		w.add("p.gender_id = " + w.arg(*filter.GenderID))
	}
	return r.queryPerfumes(ctx, perfumeSelect+w.String()+perfumeGroupBy, w.args...)
}

func (r *catalogRepository) FilterPerfumes(ctx context.Context, selection models.ProductSelection) ([]*models.Perfume, error) {
	w := &whereBuilder{}
	if len(selection.CategoryIDs) > 0 {
		w.add("p.category_id = ANY(" + w.arg(pq.Array(selection.CategoryIDs)) + ")")
	}
	if len(selection.BrandIDs) > 0 {
		w.add("p.brand_id = ANY(" + w.arg(pq.Array(selection.BrandIDs)) + ")")
	}
	if selection.GenderID != nil {
		w.add("p.gender_id = " + w.arg(*selection.GenderID))
	}
	return r.queryPerfumes(ctx, perfumeSelect+w.String()+perfumeGroupBy, w.args...)
}

func (r *catalogRepository) queryPerfumes(ctx context.Context, query string, args ...any) ([]*models.Perfume, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query perfumes: %w", err)
	}
	defer rows.Close()

	perfumes := []*models.Perfume{}
	for rows.Next() {
		p, err := scanPerfume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan perfume: %w", err)
		}
		perfumes = append(perfumes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perfumes, nil
}

func (r *catalogRepository) GetPerfume(ctx context.Context, id int64) (*models.Perfume, error) {
	query := perfumeSelect + "\n\t\tWHERE p.id = $1" + perfumeGroupBy
	return scanPerfume(r.db.QueryRowContext(ctx, query, id))
}

func (r *catalogRepository) UpdatePerfume(ctx context.Context, perfume *models.Perfume) error {
	query := `UPDATE perfumes SET name = $1, description = $2, type = $3, first_note = $4, heart_note = $5,
	          last_note = $6, brand_id = $7, category_id = $8, gender_id = $9, updated_at = NOW()
	          WHERE id = $10`
	res, err := r.db.ExecContext(ctx, query, perfume.Name, perfume.Description, perfume.Type,
		perfume.FirstNote, perfume.HeartNote, perfume.LastNote,
		perfume.Brand.ID, perfume.Category.ID, perfume.Gender.ID, perfume.ID)
	if err != nil {
		return fmt.Errorf("failed to update perfume: %w", err)
	}
	return expectAffected(res, ErrPerfumeNotFound)
}

func (r *catalogRepository) DeletePerfume(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM perfumes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete perfume: %w", err)
	}
	return expectAffected(res, ErrPerfumeNotFound)
}

func (r *catalogRepository) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	var brands []*models.Brand
	err := r.listNamed(ctx, "brands", func(id int64, name string) {
		brands = append(brands, &models.Brand{ID: id, Name: name})
	})
	return brands, err
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.listNamed(ctx, "categories", func(id int64, name string) {
		categories = append(categories, &models.Category{ID: id, Name: name})
	})
	return categories, err
}

func (r *catalogRepository) ListGenders(ctx context.Context) ([]*models.Gender, error) {
	var genders []*models.Gender
	err := r.listNamed(ctx, "genders", func(id int64, name string) {
		genders = append(genders, &models.Gender{ID: id, Name: name})
	})
	return genders, err
}

// listNamed читает справочник вида (id, name); table - константа из кода, не пользовательский ввод
func (r *catalogRepository) listNamed(ctx context.Context, table string, add func(id int64, name string)) error {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM "+table+" ORDER BY name")
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		add(id, name)
	}
	return rows.Err()
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
