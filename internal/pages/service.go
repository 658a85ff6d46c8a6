package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/pmani/ad-mosaic/internal/pkg/logger"
)

// ErrNotFound is returned when a page id does not exist.
var ErrNotFound = errors.New("page not found")

// ErrInvalidTable is returned when a source table name fails validation.
var ErrInvalidTable = errors.New("invalid source table name")

// tableNamePattern restricts source table identifiers to what the warehouse
// allows; the name is interpolated into SQL so it must never carry quotes.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// adsPerBrand is how many top creatives are selected per brand when a page
// is created from a source table.
const adsPerBrand = 15

// Service manages the embedded_pages table in the warehouse.
type Service struct {
	db *sql.DB
}

// NewService creates a pages service over the given warehouse handle.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// List returns every page, oldest first.
func (s *Service) List(ctx context.Context) ([]Page, error) {
	query := `
		SELECT PAGE_ID, PAGE_NAME, SOURCE_TABLE, CREATED_AT, UPDATED_AT, TO_JSON(ADS_LIST)
		FROM EMBEDDED_PAGES
		ORDER BY PAGE_ID
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var result []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	return result, rows.Err()
}

// Get returns a single page by id.
func (s *Service) Get(ctx context.Context, id int64) (*Page, error) {
	query := `
		SELECT PAGE_ID, PAGE_NAME, SOURCE_TABLE, CREATED_AT, UPDATED_AT, TO_JSON(ADS_LIST)
		FROM EMBEDDED_PAGES
		WHERE PAGE_ID = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create builds a new page: it selects the top creatives per brand from the
// source table, assigns the next page id, and inserts the row. Returns the
// new page id and the selected ads.
func (s *Service) Create(ctx context.Context, req CreateRequest) (int64, []Ad, error) {
	if !tableNamePattern.MatchString(req.SourceTable) {
		return 0, nil, ErrInvalidTable
	}

	nextID, err := s.nextPageID(ctx)
	if err != nil {
		return 0, nil, err
	}

	ads, err := s.selectTopAds(ctx, req.SourceTable, req.ValueType)
	if err != nil {
		return 0, nil, err
	}

	adsJSON, err := json.Marshal(ads)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode ads list: %w", err)
	}

	insert := `
		INSERT INTO EMBEDDED_PAGES (PAGE_ID, PAGE_NAME, SOURCE_TABLE, CREATED_AT, UPDATED_AT, ADS_LIST)
		SELECT ?, ?, ?, CURRENT_TIMESTAMP(), CURRENT_TIMESTAMP(), PARSE_JSON(?)
	`
	if _, err := s.db.ExecContext(ctx, insert, nextID, req.PageName, req.SourceTable, string(adsJSON)); err != nil {
		return 0, nil, fmt.Errorf("failed to insert page: %w", err)
	}

	logger.Info("pages: created page", "page_id", nextID, "source_table", req.SourceTable, "ads", len(ads))
	return nextID, ads, nil
}

// Update renames a page and bumps its updated_at timestamp.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) error {
	query := `
		UPDATE EMBEDDED_PAGES
		SET PAGE_NAME = ?, UPDATED_AT = CURRENT_TIMESTAMP()
		WHERE PAGE_ID = ?
	`

	res, err := s.db.ExecContext(ctx, query, req.PageName, id)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a page by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM EMBEDDED_PAGES WHERE PAGE_ID = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) nextPageID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(PAGE_ID) FROM EMBEDDED_PAGES`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to get max page id: %w", err)
	}
	return maxID.Int64 + 1, nil
}

// selectTopAds picks the top video creatives per brand by impressions.
// Normalized mode swaps in the normalized metric columns.
func (s *Service) selectTopAds(ctx context.Context, table string, vt ValueType) ([]Ad, error) {
	impCol, spendCol := "IMPRESSIONS", "SPEND"
	if vt == ValueNormalized {
		impCol, spendCol = "NORMALIZED_IMPRESSION", "NORMALIZED_SPEND"
	}

	query := fmt.Sprintf(`
		SELECT BRAND, CREATIVE_URL_SUPPLIER, IMPRESSIONS, SPEND
		FROM (
			SELECT BRAND, CREATIVE_URL_SUPPLIER, IMPRESSIONS, SPEND,
				ROW_NUMBER() OVER (PARTITION BY BRAND ORDER BY IMPRESSIONS DESC) AS RN
			FROM (
				SELECT DISTINCT BRAND, CREATIVE_URL_SUPPLIER,
					%s AS IMPRESSIONS, %s AS SPEND
				FROM %s
				WHERE CREATIVE_URL_SUPPLIER LIKE '%%mp4'
			)
		)
		WHERE RN <= %d
	`, impCol, spendCol, table, adsPerBrand)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select top ads: %w", err)
	}
	defer rows.Close()

	var ads []Ad
	for rows.Next() {
		var ad Ad
		if err := rows.Scan(&ad.Brand, &ad.URL, &ad.Impression, &ad.Spend); err != nil {
			return nil, fmt.Errorf("failed to scan ad row: %w", err)
		}
		ads = append(ads, ad)
	}

	return ads, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanPage.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(r rowScanner) (Page, error) {
	var p Page
	var adsJSON sql.NullString
	if err := r.Scan(&p.PageID, &p.PageName, &p.SourceTable, &p.CreatedAt, &p.UpdatedAt, &adsJSON); err != nil {
		return Page{}, err
	}
	p.AdsList = []Ad{}
	if adsJSON.Valid && adsJSON.String != "" {
		if err := json.Unmarshal([]byte(adsJSON.String), &p.AdsList); err != nil {
			return Page{}, fmt.Errorf("failed to decode ads list for page %d: %w", p.PageID, err)
		}
	}
	return p, nil
}
