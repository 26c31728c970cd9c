package mealplan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/phikva/helseapp-sub000/internal/colortag"
	"github.com/phikva/helseapp-sub000/internal/models"
	"github.com/phikva/helseapp-sub000/internal/repository"
)

// DefaultSlotCount is how many empty slots a freshly created week template
// carries per day.
const DefaultSlotCount = 2

const (
	currentWeekKey = "mealplan.current_week"
	expandedDayKey = "mealplan.expanded_day"

	slotPrefix = "meal"
)

var ErrUnknownDay = errors.New("unknown plan day")

// Store owns the weekly meal plans. Plans are keyed by the Monday of their
// calendar week; any date within the week resolves to the same plan. This
// is the only state owned exclusively by the client, so it persists
// indefinitely and never expires.
type Store struct {
	plans    repository.MealPlanRepository
	settings repository.SettingsRepository
}

func NewStore(plans repository.MealPlanRepository, settings repository.SettingsRepository) *Store {
	return &Store{plans: plans, settings: settings}
}

// WeekStart normalizes any date to its week's Monday, in YYYY-MM-DD form.
func WeekStart(date time.Time) string {
	offset := (int(date.Weekday()) + 6) % 7
	monday := date.AddDate(0, 0, -offset)
	return monday.Format("2006-01-02")
}

// PlanForWeek returns the stored plan for the week containing date. A week
// with no prior writes is materialized lazily: all seven days, each with
// the default number of empty slots, persisted before returning.
func (store *Store) PlanForWeek(ctx context.Context, date time.Time) (models.WeekPlan, error) {
	weekStart := WeekStart(date)

	slots, err := store.plans.FindByWeek(ctx, weekStart)
	if err != nil {
		return models.WeekPlan{}, fmt.Errorf("loading week %s: %w", weekStart, err)
	}
	if len(slots) == 0 {
		template := templateSlots(weekStart)
		if err := store.plans.UpsertAll(ctx, template); err != nil {
			return models.WeekPlan{}, fmt.Errorf("materializing week %s: %w", weekStart, err)
		}
		slots = template
	}

	plan := models.WeekPlan{WeekStart: weekStart, Days: make(map[string]models.DayPlan)}
	for _, day := range models.WeekDays {
		plan.Days[day] = models.DayPlan{}
	}
	for _, slot := range slots {
		day, ok := plan.Days[slot.Day]
		if !ok {
			continue
		}
		day[slot.SlotID] = models.MealSlot{Recipe: slot.Recipe, Color: slot.Color}
	}
	return plan, nil
}

// AddMealToDay places a recipe into a slot, overwriting whatever was
// there. The slot snapshot carries a denormalized color tag so the plan
// renders consistently even after the recipe leaves the content list.
func (store *Store) AddMealToDay(ctx context.Context, date time.Time, day, slotID string, recipe models.Recipe, color colortag.Tag) error {
	if !models.ValidWeekDay(day) {
		return fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	if !color.Valid() {
		color = colortag.Fallback
	}
	slot := repository.MealPlanSlot{
		WeekStart:  WeekStart(date),
		Day:        day,
		SlotID:     slotID,
		SlotNumber: slotNumber(slotID),
		Recipe:     &recipe,
		Color:      color.String(),
	}
	if err := store.plans.Upsert(ctx, slot); err != nil {
		return fmt.Errorf("adding meal to %s: %w", day, err)
	}
	return nil
}

// RemoveMealFromDay deletes the slot key entirely, reverting it to absent.
// Use ClearMealSlot to keep the slot as an explicit empty marker instead.
func (store *Store) RemoveMealFromDay(ctx context.Context, date time.Time, day, slotID string) error {
	if !models.ValidWeekDay(day) {
		return fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	if err := store.plans.Delete(ctx, WeekStart(date), day, slotID); err != nil {
		return fmt.Errorf("removing meal from %s: %w", day, err)
	}
	return nil
}

// ClearMealSlot empties a slot but keeps its key, preserving the slot's
// add-button affordance in the UI.
func (store *Store) ClearMealSlot(ctx context.Context, date time.Time, day, slotID string) error {
	if !models.ValidWeekDay(day) {
		return fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	slot := repository.MealPlanSlot{
		WeekStart:  WeekStart(date),
		Day:        day,
		SlotID:     slotID,
		SlotNumber: slotNumber(slotID),
	}
	if err := store.plans.Upsert(ctx, slot); err != nil {
		return fmt.Errorf("clearing meal slot in %s: %w", day, err)
	}
	return nil
}

// AddMealSlotToDay appends a new empty slot to the day and returns its id.
// Ids are allocated monotonically as max(existing)+1, so a removed middle
// slot is never reused.
func (store *Store) AddMealSlotToDay(ctx context.Context, date time.Time, day string) (string, error) {
	if !models.ValidWeekDay(day) {
		return "", fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	weekStart := WeekStart(date)

	slots, err := store.plans.FindByWeek(ctx, weekStart)
	if err != nil {
		return "", fmt.Errorf("loading week %s: %w", weekStart, err)
	}
	highest := 0
	for _, slot := range slots {
		if slot.Day == day && slot.SlotNumber > highest {
			highest = slot.SlotNumber
		}
	}

	next := highest + 1
	slotID := fmt.Sprintf("%s%d", slotPrefix, next)
	slot := repository.MealPlanSlot{
		WeekStart:  weekStart,
		Day:        day,
		SlotID:     slotID,
		SlotNumber: next,
	}
	if err := store.plans.Upsert(ctx, slot); err != nil {
		return "", fmt.Errorf("adding slot to %s: %w", day, err)
	}
	return slotID, nil
}

// DisplaySlot pairs a slot with its 1-based display number. The number is
// the slot's position in the day's current order, not its stored id, so
// {meal1, meal3} displays as Meal 1 and Meal 2.
type DisplaySlot struct {
	Number int
	SlotID string
	Slot   models.MealSlot
}

func DisplaySlots(plan models.WeekPlan, day string) []DisplaySlot {
	dayPlan, ok := plan.Days[day]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(dayPlan))
	for id := range dayPlan {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return slotNumber(ids[i]) < slotNumber(ids[j])
	})

	slots := make([]DisplaySlot, len(ids))
	for i, id := range ids {
		slots[i] = DisplaySlot{Number: i + 1, SlotID: id, Slot: dayPlan[id]}
	}
	return slots
}

// CurrentWeek returns the persisted week pointer, or this week when none
// was stored yet.
func (store *Store) CurrentWeek(ctx context.Context) (string, error) {
	value, err := store.settings.Get(ctx, currentWeekKey)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return WeekStart(time.Now()), nil
	}
	if err != nil {
		return "", fmt.Errorf("loading current week: %w", err)
	}
	return value, nil
}

func (store *Store) SetCurrentWeek(ctx context.Context, date time.Time) error {
	if err := store.settings.Set(ctx, currentWeekKey, WeekStart(date)); err != nil {
		return fmt.Errorf("storing current week: %w", err)
	}
	return nil
}

// LastExpandedDay returns the last day the user expanded, or "" when none.
func (store *Store) LastExpandedDay(ctx context.Context) (string, error) {
	value, err := store.settings.Get(ctx, expandedDayKey)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading expanded day: %w", err)
	}
	return value, nil
}

func (store *Store) SetLastExpandedDay(ctx context.Context, day string) error {
	if !models.ValidWeekDay(day) {
		return fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}
	if err := store.settings.Set(ctx, expandedDayKey, day); err != nil {
		return fmt.Errorf("storing expanded day: %w", err)
	}
	return nil
}

func templateSlots(weekStart string) []repository.MealPlanSlot {
	slots := make([]repository.MealPlanSlot, 0, len(models.WeekDays)*DefaultSlotCount)
	for _, day := range models.WeekDays {
		for number := 1; number <= DefaultSlotCount; number++ {
			slots = append(slots, repository.MealPlanSlot{
				WeekStart:  weekStart,
				Day:        day,
				SlotID:     fmt.Sprintf("%s%d", slotPrefix, number),
				SlotNumber: number,
			})
		}
	}
	return slots
}

// slotNumber parses the numeric suffix of a slot id; malformed ids sort
// first.
func slotNumber(slotID string) int {
	number, err := strconv.Atoi(strings.TrimPrefix(slotID, slotPrefix))
	if err != nil {
		return 0
	}
	return number
}
