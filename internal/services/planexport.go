package services

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/phikva/helseapp-sub000/internal/mealplan"
	"github.com/phikva/helseapp-sub000/internal/models"
)

// PlanExporter renders a weekly meal plan as an iCal calendar, one all-day
// event per filled slot, so a household calendar can subscribe to the plan.
type PlanExporter struct {
	productID string
}

func NewPlanExporter() *PlanExporter {
	return &PlanExporter{productID: "-//helseapp//meal plan//EN"}
}

// Export serializes the plan. Empty slots produce no events.
func (exporter *PlanExporter) Export(plan models.WeekPlan) (string, error) {
	weekStart, err := time.Parse("2006-01-02", plan.WeekStart)
	if err != nil {
		return "", fmt.Errorf("parsing week start %q: %w", plan.WeekStart, err)
	}

	calendar := ical.NewCalendar()
	calendar.SetMethod(ical.MethodPublish)
	calendar.SetProductId(exporter.productID)

	for offset, day := range models.WeekDays {
		date := weekStart.AddDate(0, 0, offset)
		for _, display := range mealplan.DisplaySlots(plan, day) {
			if display.Slot.Recipe == nil {
				continue
			}
			uid := fmt.Sprintf("%s-%s-%s@helseapp", plan.WeekStart, day, display.SlotID)
			event := calendar.AddEvent(uid)
			event.SetDtStampTime(time.Now())
			event.SetAllDayStartAt(date)
			event.SetAllDayEndAt(date.AddDate(0, 0, 1))
			event.SetSummary(fmt.Sprintf("Meal %d: %s", display.Number, display.Slot.Recipe.Title))
			if display.Slot.Recipe.Notes != "" {
				event.SetDescription(display.Slot.Recipe.Notes)
			}
		}
	}

	return calendar.Serialize(), nil
}
