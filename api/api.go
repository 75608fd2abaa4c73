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

	"github.com/blnkfinance/certify"
	"github.com/blnkfinance/certify/api/middleware"
	"github.com/blnkfinance/certify/config"
	"github.com/blnkfinance/certify/internal/apierror"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	certify *certify.Certify
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/certifications", a.CreateCertification)
	router.GET("/certifications", a.GetAllCertifications)
	router.POST("/certifications/sweep", a.SweepCertifications)
	router.GET("/certifications/:id", a.GetCertification)
	router.PUT("/certifications/:id", a.UpdateCertification)
	router.GET("/certifications/:id/events", a.GetCertificationEvents)

	router.POST("/certifications/:id/submit", a.SubmitCertification)
	router.POST("/certifications/:id/check-status", a.CheckCertificationStatus)

	router.POST("/certifications/:id/payments", a.RecordPayment)
	router.GET("/certifications/:id/payments", a.GetPayments)
	return a.router
}

func NewAPI(c *certify.Certify) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{certify: c, router: r}
}

// respondWithError writes err using the status of its API error code.
func respondWithError(c *gin.Context, err error) {
	c.JSON(apierror.MapErrorToHTTPStatus(err), apierror.Response(err))
}
