package httpserver

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ralvey/adpace/backend/internal/app"
	"github.com/ralvey/adpace/backend/internal/billing"
	"github.com/ralvey/adpace/backend/internal/pacing"
	evaluationsvc "github.com/ralvey/adpace/backend/internal/services/evaluation"
	"github.com/ralvey/adpace/backend/internal/sheets"
)

type periodDTO struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type conversionsDTO struct {
	Care    float64 `json:"care"`
	Nurse   float64 `json:"nurse"`
	Support float64 `json:"support"`
	Total   float64 `json:"total"`
}

type pacingDTO struct {
	DaysTotal      int             `json:"daysTotal"`
	DaysElapsed    int             `json:"daysElapsed"`
	DaysLeft       int             `json:"daysLeft"`
	ProjectedSpend decimal.Decimal `json:"projectedSpend"`
	PctUsed        float64         `json:"pctUsed"`
	Status         pacing.Status   `json:"status"`
}

type platformSplitDTO struct {
	Recommended decimal.Decimal `json:"recommended"`
	Change      decimal.Decimal `json:"change"`
}

type recommendationDTO struct {
	TargetDailyBudget decimal.Decimal             `json:"targetDailyBudget"`
	Change            decimal.Decimal             `json:"change"`
	ChangePct         float64                     `json:"changePct"`
	Urgency           pacing.Urgency              `json:"urgency"`
	Message           string                      `json:"message"`
	PerPlatform       map[string]platformSplitDTO `json:"perPlatform"`
}

type clientReportDTO struct {
	Name               string                     `json:"name"`
	Budget             decimal.Decimal            `json:"budget"`
	Period             periodDTO                  `json:"period"`
	TotalSpend         decimal.Decimal            `json:"totalSpend"`
	SpendByPlatform    map[string]decimal.Decimal `json:"spendByPlatform"`
	Conversions        conversionsDTO             `json:"conversions"`
	AverageCTR         float64                    `json:"averageCtr"`
	CPA                *decimal.Decimal           `json:"cpa"`
	CurrentDailyBudget decimal.Decimal            `json:"currentDailyBudget"`
	Pacing             pacingDTO                  `json:"pacing"`
	Recommendation     *recommendationDTO         `json:"recommendation"`
}

type evaluationDTO struct {
	ID          string            `json:"id"`
	Month       string            `json:"month"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Clients     []clientReportDTO `json:"clients"`
}

func registerAPIRoutes(fiberApp *fiber.App, container *app.Container) {
	api := fiberApp.Group("/api")

	api.Get("/months", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"months": evaluationsvc.MonthOptions(time.Now().In(container.Config.Location()))})
	})

	api.Get("/evaluations", func(c *fiber.Ctx) error {
		sel, err := billing.ParseSelector(c.Query("month", "current"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}

		// A plain read serves the freshest stored report; refresh=true
		// re-triggers the evaluation. Stale in-flight runs lose to newer
		// ones inside the service, so concurrent refreshes stay safe.
		if !c.QueryBool("refresh") {
			if report, ok := container.Evaluations.Latest(sel); ok {
				return c.JSON(toEvaluationDTO(report))
			}
		}

		report, err := container.Evaluations.Evaluate(c.UserContext(), sel)
		if err != nil {
			status := fiber.StatusBadGateway
			if errors.Is(err, sheets.ErrNoConfigRows) {
				return writeError(c, status, "client configuration tab is empty")
			}
			return writeError(c, status, "evaluation failed: "+err.Error())
		}
		return c.JSON(toEvaluationDTO(report))
	})
}

func toEvaluationDTO(report *evaluationsvc.Report) evaluationDTO {
	dto := evaluationDTO{
		ID:          report.ID.String(),
		Month:       report.Selector,
		GeneratedAt: report.GeneratedAt,
		Clients:     make([]clientReportDTO, 0, len(report.Clients)),
	}
	for _, client := range report.Clients {
		dto.Clients = append(dto.Clients, toClientDTO(client))
	}
	return dto
}

func toClientDTO(client evaluationsvc.ClientReport) clientReportDTO {
	agg := client.Aggregate

	spend := make(map[string]decimal.Decimal, len(agg.SpendByPlatform))
	for platform, v := range agg.SpendByPlatform {
		spend[string(platform)] = v
	}

	dto := clientReportDTO{
		Name:   client.Name,
		Budget: client.Budget,
		Period: periodDTO{
			Label: client.PeriodLabel,
			Start: client.PeriodStart.Format("2006-01-02"),
			End:   client.PeriodEnd.Format("2006-01-02"),
		},
		TotalSpend:      agg.TotalSpend,
		SpendByPlatform: spend,
		Conversions: conversionsDTO{
			Care:    agg.Care,
			Nurse:   agg.Nurse,
			Support: agg.Support,
			Total:   agg.TotalConversions(),
		},
		AverageCTR:         agg.AverageCTR,
		CPA:                client.CPA,
		CurrentDailyBudget: agg.CurrentDailyBudget(),
		Pacing: pacingDTO{
			DaysTotal:      client.Pacing.DaysTotal,
			DaysElapsed:    client.Pacing.DaysElapsed,
			DaysLeft:       client.Pacing.DaysLeft,
			ProjectedSpend: client.Pacing.ProjectedSpend,
			PctUsed:        client.Pacing.PctUsed,
			Status:         client.Pacing.Status,
		},
	}

	if rec := client.Recommendation; rec != nil {
		split := make(map[string]platformSplitDTO, len(rec.PerPlatform))
		for platform, s := range rec.PerPlatform {
			split[string(platform)] = platformSplitDTO{Recommended: s.Recommended, Change: s.Change}
		}
		dto.Recommendation = &recommendationDTO{
			TargetDailyBudget: rec.TargetDailyBudget,
			Change:            rec.Change,
			ChangePct:         rec.ChangePct,
			Urgency:           rec.Urgency,
			Message:           rec.Message,
			PerPlatform:       split,
		}
	}
	return dto
}
