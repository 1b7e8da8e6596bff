package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/aquawatch/internal/export"
	"github.com/i474232898/aquawatch/internal/monitor"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *monitor.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/history", func(c *fiber.Ctx) error {
		view, err := service.DayViews(c.UserContext())
		if err != nil {
			return toHTTPError(err, "failed to load history")
		}
		return c.JSON(view)
	})

	v1.Get("/history/export", func(c *fiber.Ctx) error {
		view, err := service.DayViews(c.UserContext())
		if err != nil {
			return toHTTPError(err, "failed to load history")
		}
		data, err := export.HistoryWorkbook(view.Days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to export history")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="aquarium-history.xlsx"`)
		return c.Send(data)
	})

	v1.Post("/history/refresh", func(c *fiber.Ctx) error {
		snap, err := service.Refresh(c.UserContext())
		if err != nil {
			return toHTTPError(err, "failed to refresh history")
		}
		return c.JSON(fiber.Map{
			"fetchedAt": snap.FetchedAt,
			"days":      len(snap.Groups),
		})
	})

	v1.Get("/history/:date", func(c *fiber.Ctx) error {
		date := c.Params("date")
		if err := validate.Var(date, "datetime=2006-01-02"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		day, err := service.Day(c.UserContext(), date)
		if err != nil {
			return toHTTPError(err, "failed to load history")
		}
		return c.JSON(day)
	})

	v1.Get("/series", func(c *fiber.Ctx) error {
		var q seriesQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		date := q.Date
		if date == "" && q.mode == monitor.SeriesAverage {
			date = service.Today()
		}
		return c.JSON(service.Series(q.param, date, q.mode))
	})

	v1.Get("/live", func(c *fiber.Ctx) error {
		return c.JSON(service.Live(c.UserContext()))
	})

	v1.Get("/ranges", func(c *fiber.Ctx) error {
		ranges := service.Ranges(c.UserContext())
		return c.JSON(fiber.Map{
			"ranges": ranges,
			"form":   monitor.FormFromConfig(ranges),
		})
	})

	v1.Put("/ranges", func(c *fiber.Ctx) error {
		var form monitor.RangeForm
		if err := c.BodyParser(&form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		ranges, err := service.SaveRanges(c.UserContext(), form)
		if err != nil {
			return toHTTPError(err, "ranges saved locally but could not be sent to the monitor")
		}
		return c.JSON(fiber.Map{"ranges": ranges})
	})

	v1.Delete("/ranges", func(c *fiber.Ctx) error {
		ranges, err := service.ResetRanges(c.UserContext())
		if err != nil {
			return toHTTPError(err, "ranges reset locally but could not be sent to the monitor")
		}
		return c.JSON(fiber.Map{"ranges": ranges})
	})

	v1.Post("/feed/schedule", func(c *fiber.Ctx) error {
		var form monitor.FeedScheduleForm
		if err := c.BodyParser(&form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		schedule, err := service.SaveFeedSchedule(c.UserContext(), form)
		if err != nil {
			return toHTTPError(err, "failed to save feed schedule")
		}
		return c.Status(fiber.StatusCreated).JSON(schedule)
	})

	v1.Post("/feed/manual", func(c *fiber.Ctx) error {
		var req manualFeedRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cmd, err := service.ManualFeed(c.UserContext(), *req.Amount)
		if err != nil {
			return toHTTPError(err, "failed to send feed command")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"commandId": cmd.ID,
			"amount":    cmd.Amount,
		})
	})
}

// seriesQuery holds query parameters for the series endpoint.
type seriesQuery struct {
	Param string `validate:"required"`
	Date  string `validate:"omitempty,datetime=2006-01-02"`
	Mode  string `validate:"omitempty,oneof=latest average"`

	param monitor.Parameter
	mode  monitor.SeriesMode
}

func (q *seriesQuery) bind(c *fiber.Ctx) error {
	q.Param = c.Query("param", string(monitor.ParamTemperature))
	q.Date = c.Query("date")
	q.Mode = c.Query("mode")

	if err := validate.Struct(q); err != nil {
		return err
	}

	p, err := monitor.ParseParameter(q.Param)
	if err != nil {
		return err
	}
	mode, err := monitor.ParseSeriesMode(q.Mode)
	if err != nil {
		return err
	}
	q.param, q.mode = p, mode
	return nil
}

// manualFeedRequest is the body of a manual feed.
type manualFeedRequest struct {
	Amount *float64 `json:"amount" validate:"required,gte=0"`
}

// toHTTPError maps service errors onto HTTP statuses. msg is shown for
// upstream failures, whose details stay in the logs.
func toHTTPError(err error, msg string) error {
	switch {
	case errors.Is(err, monitor.ErrInvalidRange), errors.Is(err, monitor.ErrInvalidFeed):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, monitor.ErrNoHistory):
		return fiber.NewError(fiber.StatusServiceUnavailable, "history has not been loaded yet")
	case errors.Is(err, monitor.ErrNoDay):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, monitor.ErrSuperseded):
		return fiber.NewError(fiber.StatusConflict, "a newer history refresh is in progress")
	case errors.Is(err, monitor.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, msg)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
