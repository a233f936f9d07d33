package actions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// GenerateHandler godoc
// @Summary Generate an article
// @Description Validates the input, checks the daily allowance, forwards the
// @Description request to SEOScribe and counts the generation.
// @Tags actions
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "article request"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/v1/generate [post]
func GenerateHandler(rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateRequest

		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, "invalid request body", err)
			return
		}

		device := devices.FromContext(c)

		result, err := device.State.Generate(c.Request.Context(), entitlements.GenerateInput{
			Topic:      req.Topic,
			WebsiteURL: req.WebsiteURL,
			Tone:       req.Tone,
			TemplateID: req.TemplateID,
		})

		snap := device.State.Snapshot()
		record(rec, usage.KindGeneration, snap.Plan, err)

		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, GenerateResponse{
			Title:   result.Title,
			Article: result.Article,
			View:    entitlements.ViewOf(snap),
		})
	}
}

// ToolHandler godoc
// @Summary Run an SEO tool
// @Description Checks the per-tool daily allowance, forwards the input and counts the use.
// @Tags actions
// @Accept json
// @Produce json
// @Param tool path string true "tool id"
// @Success 200 {object} ToolResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/v1/tools/{tool} [post]
func ToolHandler(rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tool := c.Param("tool")

		input := map[string]any{}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				errors.BadRequest(c, "invalid request body", err)
				return
			}
		}

		device := devices.FromContext(c)

		result, err := device.State.RunTool(c.Request.Context(), tool, input)

		snap := device.State.Snapshot()
		record(rec, usage.KindTool, snap.Plan, err)

		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, ToolResponse{
			Tool:   tool,
			Result: result,
			View:   entitlements.ViewOf(snap),
		})
	}
}

// lists the known SEO tools
func ListToolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, ToolsResponse{Tools: plans.Tools()})
}

func record(rec Recorder, kind usage.Kind, plan plans.Plan, err error) {
	if rec == nil {
		return
	}

	switch category := errors.Category(err); {
	case err == nil:
		rec.RecordDecision(string(kind), string(plan), outcomeAllowed)
	case category == errors.CategoryQuota:
		rec.RecordDecision(string(kind), string(plan), outcomeDenied)
	default:
		rec.RecordDecision(string(kind), string(plan), outcomeFailed)
		rec.RecordActionError(category)
	}
}
