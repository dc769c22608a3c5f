package models

// AddCandidateRequest is the body of POST /interview/addData
type AddCandidateRequest struct {
	Name        string `json:"name" form:"name" binding:"required" example:"alice"`
	Designation string `json:"designation" form:"designation" example:"Backend Engineer"`
}

// UpdateCandidateRequest is the body of PUT /interview/updateData.
// The candidate is the caller named by the token.
type UpdateCandidateRequest struct {
	Designation string `json:"designation" form:"designation" example:"Staff Engineer"`
}
