package models

import (
	"time"

	"github.com/gin-gonic/gin"
)

// BaseResponse represents the base API response structure
type BaseResponse struct {
	Success   bool        `json:"success" example:"true"`
	Message   string      `json:"message,omitempty" example:"Operation completed successfully"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp" example:"1640995200"`
	RequestID string      `json:"request_id,omitempty" example:"req_1a2b3c4d5e6f"`
}

// ErrorInfo represents error information
type ErrorInfo struct {
	Code    string `json:"code" example:"INVALID_REQUEST"`
	Message string `json:"message" example:"Invalid request parameters"`
	Details string `json:"details,omitempty" example:"Field 'name' is required"`
}

// CandidateResponse is the public view of a stored candidate
type CandidateResponse struct {
	Name        string `json:"name" example:"alice"`
	Designation string `json:"designation" example:"Backend Engineer"`
}

// TokenResponse carries the identity token issued by addData
type TokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn int64  `json:"expires_in" example:"3600"`
}

// HealthCheckResponse represents health check response
type HealthCheckResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp int64                  `json:"timestamp" example:"1640995200"`
	Version   string                 `json:"version" example:"1.0.0"`
	Uptime    int64                  `json:"uptime" example:"86400"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents individual health check
type HealthCheck struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message,omitempty" example:"Service is running normally"`
	Latency string `json:"latency,omitempty" example:"5ms"`
}

// Success builds a success envelope for the current request
func Success(c *gin.Context, message string, data interface{}) BaseResponse {
	return BaseResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
		RequestID: c.GetString("request_id"),
	}
}

// Failure builds an error envelope for the current request
func Failure(c *gin.Context, err *APIError) BaseResponse {
	return BaseResponse{
		Success:   false,
		Error:     err.Info(),
		Timestamp: time.Now().Unix(),
		RequestID: c.GetString("request_id"),
	}
}

// Abort writes err as an envelope and stops the handler chain
func Abort(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, Failure(c, err))
	c.Abort()
}
