package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertCategory returns the category called name, creating it with color
// when it does not exist yet. A concurrent insert of the same name is not
// an error: the existing row is re-fetched and returned.
func (d *Database) UpsertCategory(ctx context.Context, name, color string) (*Category, error) {
	existing, err := d.CategoryByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	category := &Category{Name: name, Color: color}
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(category)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("failed to create category %q: %w", name, res.Error)
	}
	if res.Error == nil && res.RowsAffected == 1 && category.ID != 0 {
		return category, nil
	}

	// lost the race
	return d.CategoryByName(ctx, name)
}

// CreateCategory inserts a new category and fails with ErrCategoryExists
// when the name is taken.
func (d *Database) CreateCategory(ctx context.Context, category *Category) error {
	if err := d.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrCategoryExists, category.Name)
		}
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (d *Database) CategoryByName(ctx context.Context, name string) (*Category, error) {
	var categories []Category
	if err := d.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	return &categories[0], nil
}

func (d *Database) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var categories []Category
	if err := d.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return &categories[0], nil
}

func (d *Database) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := d.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory changes the name and/or color of an existing category.
// Empty arguments leave the field untouched.
func (d *Database) UpdateCategory(ctx context.Context, id uint, name, color string) (*Category, error) {
	category, err := d.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		category.Name = name
	}
	if color != "" {
		category.Color = color
	}
	if err := d.db.WithContext(ctx).Save(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryExists, category.Name)
		}
		return nil, fmt.Errorf("failed to update category %d: %w", id, err)
	}
	return category, nil
}

// DeleteCategory removes a category. Its transactions become uncategorized.
func (d *Database) DeleteCategory(ctx context.Context, id uint) error {
	return d.Transaction(ctx, func(tx *Database) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return err
		}
		err := tx.db.WithContext(ctx).Model(&Transaction{}).Where("category_id = ?", id).Update("category_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to detach transactions from category %d: %w", id, err)
		}
		if err := tx.db.WithContext(ctx).Where("id = ?", id).Delete(&Category{}).Error; err != nil {
			return fmt.Errorf("failed to delete category %d: %w", id, err)
		}
		return nil
	})
}

func (d *Database) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&Category{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}
