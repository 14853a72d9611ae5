package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/pace2go/internal/pacing"
)

func registerParameterEndpoints(rest *echo.Echo, api *restApi) {
	group := rest.Group("/parameter")

	group.GET("/", api.getParameters)
	group.GET("/:"+urlParamId+"/", api.getParameter)
	group.POST("/:"+urlParamId+"/", api.setParameter)
	group.POST("/:"+urlParamId+"/reset/", api.resetParameter)
}

// returns all parameters with their limits
func (api *restApi) getParameters(c echo.Context) error {
	data := api.device.Parameters()
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (api *restApi) getParameter(c echo.Context) error {
	id := c.Param(urlParamId)
	p, err := pacing.ParseParameter(id)
	if err != nil {
		return returnNotFound(c, id)
	}
	data, err := api.device.GetParameter(p)
	if err != nil {
		return returnRejected(c, err)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func (api *restApi) setParameter(c echo.Context) error {
	id := c.Param(urlParamId)
	p, err := pacing.ParseParameter(id)
	if err != nil {
		return returnNotFound(c, id)
	}

	var request valueRequest
	if err := c.Bind(&request); err != nil {
		return returnBindError(c, err)
	}
	if request.Value == nil {
		return returnBadRequest(c, "No value provided")
	}

	if _, err := api.device.SetParameter(p, *request.Value); err != nil {
		return returnRejected(c, err)
	}
	return api.getParameter(c)
}

func (api *restApi) resetParameter(c echo.Context) error {
	id := c.Param(urlParamId)
	p, err := pacing.ParseParameter(id)
	if err != nil {
		return returnNotFound(c, id)
	}
	if _, err := api.device.ResetParameter(p); err != nil {
		return returnRejected(c, err)
	}
	return api.getParameter(c)
}
