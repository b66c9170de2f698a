package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gloveiq-backend/internal/appraisal"
	"gloveiq-backend/internal/ledger"
	"gloveiq-backend/internal/logger"
	"gloveiq-backend/internal/models"
	"gloveiq-backend/internal/photostore"
)

type AppraisalHandler struct {
	service *appraisal.Service
	led     *ledger.Ledger
	log     *logger.Logger
}

func NewAppraisalHandler(service *appraisal.Service, led *ledger.Ledger, log *logger.Logger) *AppraisalHandler {
	return &AppraisalHandler{service: service, led: led, log: log}
}

// Analyze runs the appraisal pipeline over an uploaded photo bundle plus an
// optional hint. Insufficient evidence is a successful response with a
// disabled mode; only identification failures produce an error status.
func (h *AppraisalHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	files, err := formFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse upload",
			Message: err.Error(),
		})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no photos uploaded"})
		return
	}
	if len(files) > appraisal.MaxPhotosPerRequest {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "too many photos",
		})
		return
	}

	photos := make([]appraisal.PhotoUpload, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to read file",
				Message: err.Error(),
			})
			return
		}
		if len(data) == 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "uploaded file is empty",
				Message: fh.Filename,
			})
			return
		}
		photos = append(photos, appraisal.PhotoUpload{
			Name: fh.Filename,
			Mime: photostore.MimeFromName(fh.Filename),
			Data: data,
		})
	}

	resp, err := h.service.Analyze(c.Request.Context(), req.ArtifactID, req.Hint, photos)
	if err != nil {
		h.log.Error("appraisal analysis failed", "artifact_id", req.ArtifactID, "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "appraisal analysis failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Runs summarizes the ledger: per-collection counts plus the last ten AI and
// valuation runs.
func (h *AppraisalHandler) Runs(c *gin.Context) {
	summary := h.led.Summarize(10)

	resp := models.RunsResponse{
		Counts:            summary.Counts,
		LastAIRuns:        make([]models.AIRunSummary, 0, len(summary.LastAIRuns)),
		LastValuationRuns: make([]models.ValuationRunSummary, 0, len(summary.LastValuationRuns)),
	}
	for _, rec := range summary.LastAIRuns {
		stage, _ := rec.Data["stage"].(string)
		resp.LastAIRuns = append(resp.LastAIRuns, models.AIRunSummary{
			RunID:      rec.RecordID,
			ArtifactID: rec.ArtifactID,
			BundleHash: rec.BundleHash,
			Stage:      stage,
			CreatedAt:  rec.CreatedAt,
		})
	}
	for _, rec := range summary.LastValuationRuns {
		source, _ := rec.Data["comps_source"].(string)
		used, _ := rec.Data["comps_used"].(float64)
		resp.LastValuationRuns = append(resp.LastValuationRuns, models.ValuationRunSummary{
			RunID:       rec.RecordID,
			ArtifactID:  rec.ArtifactID,
			BundleHash:  rec.BundleHash,
			CompsSource: source,
			CompsUsed:   int(used),
			CreatedAt:   rec.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}
