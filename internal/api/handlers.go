package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prenatal-phenotype-server/internal/audit"
	"github.com/prenatal-phenotype-server/internal/domain"
)

// evaluationRequest is one measurement to evaluate.
type evaluationRequest struct {
	Measurement string   `json:"measurement" binding:"required"`
	ValueMM     *float64 `json:"value_mm" binding:"required"`
	GAWeeks     *int     `json:"ga_weeks" binding:"required"`
	GADays      int      `json:"ga_days"`
}

// evaluationResponse is the evaluated observation for one measurement.
type evaluationResponse struct {
	Measurement       string                   `json:"measurement"`
	GestationalAge    string                   `json:"gestational_age"`
	Percentile        float64                  `json:"percentile"`
	ZScore            *float64                 `json:"z_score,omitempty"`
	Extrapolated      bool                     `json:"extrapolated"`
	PhenotypicFeature domain.PhenotypicFeature `json:"phenotypic_feature"`
}

// batchRequest evaluates several measurements in one call.
type batchRequest struct {
	Measurements []evaluationRequest `json:"measurements" binding:"required"`
}

// batchItem is one positional outcome of a batch evaluation. Exactly one of
// Result and Error is set.
type batchItem struct {
	Index  int                 `json:"index"`
	Result *evaluationResponse `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// measurementInfo describes one measurement type's capabilities.
type measurementInfo struct {
	Measurement  string `json:"measurement"`
	HasReference bool   `json:"has_reference"`
	HasMapping   bool   `json:"has_mapping"`
}

// handleEvaluate evaluates a single measurement.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	resp, status, err := s.evaluate(c, &req)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleEvaluateBatch evaluates several measurements. Item failures are
// reported positionally; the batch itself succeeds unless the envelope is
// malformed.
func (s *Server) handleEvaluateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if len(req.Measurements) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "measurements must not be empty"})
		return
	}

	items := make([]batchItem, len(req.Measurements))
	for i := range req.Measurements {
		item := batchItem{Index: i}
		resp, _, err := s.evaluate(c, &req.Measurements[i])
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = resp
		}
		items[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// handleListMeasurements reports the measurement types the engine can serve.
func (s *Server) handleListMeasurements(c *gin.Context) {
	mapped := make(map[string]bool)
	for _, m := range s.registry.Measurements() {
		mapped[m] = true
	}

	var infos []measurementInfo
	seen := make(map[string]bool)
	for _, m := range s.resolver.Measurements() {
		name := m.String()
		seen[name] = true
		infos = append(infos, measurementInfo{
			Measurement:  name,
			HasReference: true,
			HasMapping:   mapped[name],
		})
	}
	for _, name := range s.registry.Measurements() {
		if !seen[name] {
			infos = append(infos, measurementInfo{Measurement: name, HasMapping: true})
		}
	}

	c.JSON(http.StatusOK, gin.H{"measurements": infos})
}

// handleAuditExport serves the full audit log as a JSON document. The export
// is rendered to a buffer first so a store failure still produces a clean
// error response instead of a truncated body.
func (s *Server) handleAuditExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.auditStore.ExportJSON(c.Request.Context(), &buf); err != nil {
		s.logger.WithError(err).Error("Failed to export audit log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit export failed"})
		return
	}
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// evaluate runs the full pipeline for one measurement: percentile resolution,
// term classification, feature projection, and audit.
func (s *Server) evaluate(c *gin.Context, req *evaluationRequest) (*evaluationResponse, int, error) {
	age, err := domain.NewGestationalAge(*req.GAWeeks, req.GADays)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	value := *req.ValueMM
	if value <= 0 {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("value_mm must be positive, got %g", value)
	}

	cacheKey := fmt.Sprintf("%s|%.4f|%.4f", req.Measurement, age.TotalWeeks(), value)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.recordAudit(c, req, age, &cached)
		return &cached, http.StatusOK, nil
	}

	measurement := domain.MeasurementType(req.Measurement)
	result, err := s.resolver.PercentileFor(measurement, age.TotalWeeks(), value)
	if err != nil {
		return nil, statusFor(err), err
	}

	evaluator, err := s.registry.EvaluatorFor(req.Measurement)
	if err != nil {
		return nil, statusFor(err), err
	}
	obs, err := evaluator.Classify(result.Percentile, age)
	if err != nil {
		return nil, statusFor(err), err
	}

	resp := evaluationResponse{
		Measurement:       req.Measurement,
		GestationalAge:    age.String(),
		Percentile:        result.Percentile,
		ZScore:            result.ZScore,
		Extrapolated:      result.Extrapolated,
		PhenotypicFeature: s.projector.Project(obs),
	}
	s.cache.Add(cacheKey, resp)

	s.recordAudit(c, req, age, &resp)

	return &resp, http.StatusOK, nil
}

// recordAudit appends the evaluation to the audit log. Every served
// evaluation is recorded, cache hits included. Failures are logged and never
// fail the request.
func (s *Server) recordAudit(c *gin.Context, req *evaluationRequest, age domain.GestationalAge, resp *evaluationResponse) {
	rec := &audit.Record{
		RequestID:    c.GetString("request_id"),
		Measurement:  req.Measurement,
		ValueMM:      *req.ValueMM,
		GAWeeks:      age.Weeks(),
		GADays:       age.Days(),
		Percentile:   resp.Percentile,
		ZScore:       resp.ZScore,
		Observed:     !resp.PhenotypicFeature.Excluded,
		Extrapolated: resp.Extrapolated,
	}
	if term := resp.PhenotypicFeature.Type; term != nil {
		rec.TermID = term.ID
		rec.TermLabel = term.Label
	}
	if err := s.auditStore.Record(c.Request.Context(), rec); err != nil {
		s.logger.WithFields(logrus.Fields{
			"request_id":  rec.RequestID,
			"measurement": rec.Measurement,
		}).WithError(err).Error("Failed to record evaluation audit entry")
	}
}

// statusFor maps domain errors onto HTTP status codes. Client-side input
// defects are 4xx; configuration and data defects are 5xx.
func statusFor(err error) int {
	var (
		unknownType  *domain.UnknownMeasurementTypeError
		outOfRange   *domain.ReferenceOutOfRangeError
		badPercent   *domain.InvalidPercentileError
		unsupported  *domain.UnsupportedOperationError
		badReference *domain.InvalidReferenceDataError
		badMapping   *domain.MappingValidationError
		integrity    *domain.MappingIntegrityError
	)
	switch {
	case errors.As(err, &unknownType):
		return http.StatusNotFound
	case errors.As(err, &outOfRange), errors.As(err, &badPercent), errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.As(err, &badReference), errors.As(err, &badMapping), errors.As(err, &integrity):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
