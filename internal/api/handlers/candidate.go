package handlers

import (
	"errors"
	"net/http"

	"interview-api/internal/api/interfaces"
	"interview-api/internal/api/middlewares"
	"interview-api/internal/api/models"
	"interview-api/internal/database"
	"interview-api/internal/database/repositories"
	"interview-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// GetCandidates returns every stored candidate
func GetCandidates(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates, err := services.CandidateRepository().List(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "list")
			return
		}

		c.JSON(http.StatusOK, models.Success(c, "Candidates retrieved", toCandidateResponses(candidates)))
	}
}

// AddCandidate stores a candidate and hands back a token for its name.
// The route is public, so the name is taken on trust.
func AddCandidate(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLoggerFromContext(c)

		var req models.AddCandidateRequest
		if apiErr := bindBody(c, &req); apiErr != nil {
			models.Abort(c, apiErr)
			return
		}

		candidate := database.Candidate{Name: req.Name, Designation: req.Designation}
		if err := services.CandidateRepository().Add(c.Request.Context(), candidate); err != nil {
			respondStoreError(c, err, "add")
			return
		}

		token, err := services.AuthService().Issue(req.Name)
		if err != nil {
			log.StructuredError(err, map[string]interface{}{"operation": "issue_token"})
			models.Abort(c, models.ErrInternal())
			return
		}

		if m := services.GetMetrics(); m != nil {
			m.TokensIssued.Inc()
		}
		log.SecurityLogger("token_issued", req.Name, "identity asserted without authentication on addData")
		log.AuditLogger("candidate_added", req.Name, "candidate", "designation="+req.Designation)

		c.JSON(http.StatusOK, models.Success(c, "Candidate added", models.TokenResponse{
			Token:     token,
			ExpiresIn: int64(services.AuthService().Expiry().Seconds()),
		}))
	}
}

// UpdateCandidate changes the designation of the caller's own record and
// returns the updated list
func UpdateCandidate(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userName, _ := middlewares.CurrentUser(c)

		var req models.UpdateCandidateRequest
		if apiErr := bindBody(c, &req); apiErr != nil {
			models.Abort(c, apiErr)
			return
		}

		repo := services.CandidateRepository()
		if err := repo.UpdateDesignation(c.Request.Context(), userName, req.Designation); err != nil {
			respondStoreError(c, err, "update")
			return
		}

		candidates, err := repo.List(c.Request.Context())
		if err != nil {
			respondStoreError(c, err, "list")
			return
		}

		logger.GetLoggerFromContext(c).AuditLogger("candidate_updated", userName, "candidate", "designation="+req.Designation)
		c.JSON(http.StatusOK, models.Success(c, "Candidate updated", toCandidateResponses(candidates)))
	}
}

// DeleteCandidate removes the caller's own record
func DeleteCandidate(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userName, _ := middlewares.CurrentUser(c)

		if err := services.CandidateRepository().Delete(c.Request.Context(), userName); err != nil {
			respondStoreError(c, err, "delete")
			return
		}

		logger.GetLoggerFromContext(c).AuditLogger("candidate_deleted", userName, "candidate", "")
		c.JSON(http.StatusOK, models.Success(c, "User removed successfully", nil))
	}
}

// bindBody decodes only the body formats the sanitize middleware rewrites
func bindBody(c *gin.Context, obj interface{}) *models.APIError {
	var b binding.Binding
	switch c.ContentType() {
	case binding.MIMEJSON:
		b = binding.JSON
	case binding.MIMEPOSTForm, "":
		b = binding.Form
	case binding.MIMEMultipartPOSTForm:
		b = binding.FormMultipart
	default:
		return models.ErrUnsupportedMediaType(c.ContentType())
	}

	if err := c.ShouldBindWith(obj, b); err != nil {
		return models.ErrInvalidRequest(err.Error())
	}
	return nil
}

func respondStoreError(c *gin.Context, err error, operation string) {
	if errors.Is(err, repositories.ErrCandidateNotFound) {
		models.Abort(c, models.ErrUserNotFound())
		return
	}

	logger.GetLoggerFromContext(c).StructuredError(err, map[string]interface{}{
		"operation": operation,
		"resource":  "candidate",
	})
	_ = c.Error(err)
	models.Abort(c, models.ErrInternal())
}

func toCandidateResponses(candidates []database.Candidate) []models.CandidateResponse {
	out := make([]models.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, models.CandidateResponse{
			Name:        candidate.Name,
			Designation: candidate.Designation,
		})
	}
	return out
}
