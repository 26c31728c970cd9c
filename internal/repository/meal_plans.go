package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phikva/helseapp-sub000/internal/models"
)

// MealPlanSlot is one persisted slot of a weekly plan. A nil Recipe is the
// explicit empty marker; an absent row means the slot does not exist.
type MealPlanSlot struct {
	WeekStart  string
	Day        string
	SlotID     string
	SlotNumber int
	Recipe     *models.Recipe
	Color      string
}

// MealPlanRepository persists weekly meal plans locally. Plans are
// authoritative client state: no TTL, no remote reconciliation.
type MealPlanRepository interface {
	FindByWeek(ctx context.Context, weekStart string) ([]MealPlanSlot, error)
	Upsert(ctx context.Context, slot MealPlanSlot) error
	UpsertAll(ctx context.Context, slots []MealPlanSlot) error
	Delete(ctx context.Context, weekStart, day, slotID string) error
}

type SQLiteMealPlanRepository struct {
	database *sql.DB
}

func NewMealPlanRepository(database *sql.DB) *SQLiteMealPlanRepository {
	return &SQLiteMealPlanRepository{database: database}
}

func (repository *SQLiteMealPlanRepository) FindByWeek(ctx context.Context, weekStart string) ([]MealPlanSlot, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT week_start, day, slot_id, slot_number, recipe_json, color
		FROM meal_plan_slots WHERE week_start = ?
		ORDER BY day ASC, slot_number ASC`,
		weekStart,
	)
	if err != nil {
		return nil, fmt.Errorf("finding meal plan slots: %w", err)
	}
	defer rows.Close()

	var slots []MealPlanSlot
	for rows.Next() {
		var slot MealPlanSlot
		var recipeJSON sql.NullString
		if err := rows.Scan(
			&slot.WeekStart, &slot.Day, &slot.SlotID, &slot.SlotNumber,
			&recipeJSON, &slot.Color,
		); err != nil {
			return nil, fmt.Errorf("scanning meal plan slot: %w", err)
		}
		if recipeJSON.Valid && recipeJSON.String != "" {
			var recipe models.Recipe
			if err := json.Unmarshal([]byte(recipeJSON.String), &recipe); err != nil {
				return nil, fmt.Errorf("unmarshalling slot recipe: %w", err)
			}
			slot.Recipe = &recipe
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (repository *SQLiteMealPlanRepository) Upsert(ctx context.Context, slot MealPlanSlot) error {
	recipeJSON, err := marshalSlotRecipe(slot)
	if err != nil {
		return err
	}
	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO meal_plan_slots (week_start, day, slot_id, slot_number, recipe_json, color, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (week_start, day, slot_id) DO UPDATE SET
			slot_number = excluded.slot_number,
			recipe_json = excluded.recipe_json,
			color = excluded.color,
			updated_at = excluded.updated_at`,
		slot.WeekStart, slot.Day, slot.SlotID, slot.SlotNumber,
		recipeJSON, slot.Color, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upserting meal plan slot: %w", err)
	}
	return nil
}

// UpsertAll writes a batch of slots in one transaction, used when a week
// template is materialized on first read.
func (repository *SQLiteMealPlanRepository) UpsertAll(ctx context.Context, slots []MealPlanSlot) error {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning slot transaction: %w", err)
	}
	now := time.Now()
	for _, slot := range slots {
		recipeJSON, err := marshalSlotRecipe(slot)
		if err != nil {
			transaction.Rollback()
			return err
		}
		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO meal_plan_slots (week_start, day, slot_id, slot_number, recipe_json, color, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (week_start, day, slot_id) DO UPDATE SET
				slot_number = excluded.slot_number,
				recipe_json = excluded.recipe_json,
				color = excluded.color,
				updated_at = excluded.updated_at`,
			slot.WeekStart, slot.Day, slot.SlotID, slot.SlotNumber,
			recipeJSON, slot.Color, now,
		); err != nil {
			transaction.Rollback()
			return fmt.Errorf("upserting meal plan slot: %w", err)
		}
	}
	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing slot transaction: %w", err)
	}
	return nil
}

func (repository *SQLiteMealPlanRepository) Delete(ctx context.Context, weekStart, day, slotID string) error {
	_, err := repository.database.ExecContext(ctx,
		"DELETE FROM meal_plan_slots WHERE week_start = ? AND day = ? AND slot_id = ?",
		weekStart, day, slotID,
	)
	if err != nil {
		return fmt.Errorf("deleting meal plan slot: %w", err)
	}
	return nil
}

func marshalSlotRecipe(slot MealPlanSlot) (sql.NullString, error) {
	if slot.Recipe == nil {
		return sql.NullString{}, nil
	}
	encoded, err := json.Marshal(slot.Recipe)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling slot recipe: %w", err)
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}
