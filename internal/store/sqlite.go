package store

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"nearme/internal/models"
)

// venueRow is the sqlite table layout.
type venueRow struct {
	ID        string `gorm:"primary_key"`
	Position  int
	Name      string
	Category  string
	IconLink  string
	Distance  int `gorm:"index:idx_venues_distance"`
	Latitude  float64
	Longitude float64
	Address   string
}

func (venueRow) TableName() string { return "venues" }

func toRow(v models.Venue, position int) venueRow {
	return venueRow{
		ID:        v.ID,
		Position:  position,
		Name:      v.Name,
		Category:  v.Category,
		IconLink:  v.IconLink,
		Distance:  v.Distance,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		Address:   v.Address,
	}
}

func (r venueRow) venue() models.Venue {
	return models.Venue{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		IconLink:  r.IconLink,
		Distance:  r.Distance,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Address:   r.Address,
	}
}

// SQLiteRepository keeps venues in a local sqlite file.
type SQLiteRepository struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the venues table.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// sqlite allows a single writer; one connection keeps transactions serialised.
	db.DB().SetMaxOpenConns(1)
	if err := db.AutoMigrate(&venueRow{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate venues table: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// ReplaceAll deletes every row and inserts venues inside one transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, venues []models.Venue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Exec("DELETE FROM venues").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear venues: %w", err)
	}
	for i, v := range venues {
		row := toRow(v, i)
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert venue %q: %w", v.Name, err)
		}
	}
	return tx.Commit().Error
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []venueRow
	if err := r.db.Order("distance asc").Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	venues := make([]models.Venue, len(rows))
	for i, row := range rows {
		venues[i] = row.venue()
	}
	return venues, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
