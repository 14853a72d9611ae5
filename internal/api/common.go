package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/pace2go/internal/pacing"
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}

	valueRequest struct {
		Value *float64 `json:"value"`
	}

	modeRequest struct {
		Mode *pacing.Mode `json:"mode"`
	}

	lockRequest struct {
		Locked *bool `json:"locked"`
	}

	sensitivityRequest struct {
		ActiveControl *string `json:"active_control"`
	}

	simulateRequest struct {
		Source string `json:"source"`
		Delta  int    `json:"delta"`
	}

	modeResponse struct {
		Mode      pacing.Mode `json:"mode"`
		ModeName  string      `json:"mode_name"`
		Emergency bool        `json:"emergency"`
	}

	lockResponse struct {
		Locked bool `json:"locked"`
	}

	sensitivityResponse struct {
		ActiveControl pacing.Channel `json:"active_control"`
	}

	encoderResponse struct {
		Source   string `json:"source"`
		Position int    `json:"position"`
	}
)

func CreateWebserver() *echo.Echo {
	webserver := echo.New()
	webserver.HideBanner = true

	// Root level middleware
	webserver.Pre(middleware.AddTrailingSlash())

	webserver.Use(middleware.Secure())
	webserver.Use(middleware.Recover())

	return webserver
}

// returnBindError reports a request body that could not be decoded
func returnBindError(c echo.Context, e error) error {
	var rejected *pacing.RejectedError
	if errors.As(e, &rejected) {
		return returnRejected(c, rejected)
	}
	var httpError *echo.HTTPError
	if errors.As(e, &httpError) {
		return returnBadRequest(c, fmt.Sprintf("%v", httpError.Message))
	}
	return returnBadRequest(c, e.Error())
}

// return a "bad request" message
func returnBadRequest(c echo.Context, message string) error {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad Request",
		Message: message,
	}, indentationChar)
}

// returnRejected maps a rejection of the device to its http status
func returnRejected(c echo.Context, e error) error {
	var rejected *pacing.RejectedError
	if !errors.As(e, &rejected) {
		return returnError(c, e)
	}

	status := http.StatusBadRequest
	switch rejected.Reason {
	case pacing.ReasonLocked, pacing.ReasonEmergency:
		status = http.StatusForbidden
	}
	return c.JSONPretty(status, &Result{
		Name:    string(rejected.Reason),
		Message: rejected.Error(),
	}, indentationChar)
}
