/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"net/http"
	"strconv"

	model2 "github.com/blnkfinance/certify/api/model"
	"github.com/blnkfinance/certify/firmasegura"
	"github.com/gin-gonic/gin"
)

const defaultPageLimit = 20

// CreateCertification stores a new draft certification.
//
// Responses:
// - 400 Bad Request: invalid JSON, malformed fields or missing required fields.
// - 201 Created: the stored certification.
func (a Api) CreateCertification(c *gin.Context) {
	var newCertification model2.CreateCertification
	if err := c.ShouldBindJSON(&newCertification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newCertification.ValidateCreateCertification(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.certify.CreateCertification(c.Request.Context(), newCertification.ToCertification())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetCertification(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.certify.GetCertification(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAllCertifications lists certifications, newest first. Pagination uses the
// limit and offset query parameters.
func (a Api) GetAllCertifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}

	resp, err := a.certify.GetAllCertifications(c.Request.Context(), limit, offset)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateCertification replaces the applicant data of a draft or rejected certification.
//
// Responses:
// - 400 Bad Request: invalid JSON or missing required fields.
// - 404 Not Found: unknown certification.
// - 409 Conflict: the certification is already with FirmaSegura.
// - 200 OK: the updated certification.
func (a Api) UpdateCertification(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var changes model2.CreateCertification
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := changes.ValidateCreateCertification(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.certify.UpdateCertification(c.Request.Context(), id, changes.ToCertification())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetCertificationEvents(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.certify.GetCertificationEvents(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitCertification sends the certification to FirmaSegura. With async=true the
// submission is handed to the workers and 202 is returned straight away.
func (a Api) SubmitCertification(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if err := a.certify.QueueSubmission(c.Request.Context(), id); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Certification queued for submission", "certification_id": id})
		return
	}

	outcome, err := a.certify.SubmitCertification(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithOutcome(c, outcome)
}

func (a Api) CheckCertificationStatus(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	outcome, err := a.certify.CheckCertificationStatus(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithOutcome(c, outcome)
}

func (a Api) SweepCertifications(c *gin.Context) {
	summary, err := a.certify.SweepCertifications(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// respondWithOutcome reports unsuccessful outcomes as 422 so clients can tell them apart
// from transport level failures of this API.
func respondWithOutcome(c *gin.Context, outcome firmasegura.Outcome) {
	if !outcome.Success {
		c.JSON(http.StatusUnprocessableEntity, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
