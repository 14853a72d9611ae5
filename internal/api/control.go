package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/pace2go/internal/pacing"
)

func registerControlEndpoints(rest *echo.Echo, api *restApi) {
	rest.GET("/mode/", api.getMode)
	rest.POST("/mode/", api.setMode)

	emergency := rest.Group("/emergency")
	emergency.POST("/", api.triggerEmergency)
	emergency.POST("/exit/", api.exitEmergency)

	lock := rest.Group("/lock")
	lock.GET("/", api.getLock)
	lock.POST("/", api.setLock)
	lock.POST("/toggle/", api.toggleLock)

	rest.GET("/sensitivity/", api.getSensitivityControl)
	rest.POST("/sensitivity/", api.setSensitivityControl)
}

func (api *restApi) getMode(c echo.Context) error {
	snapshot := api.device.Snapshot()
	return c.JSONPretty(http.StatusOK, &modeResponse{
		Mode:      snapshot.Mode,
		ModeName:  snapshot.ModeName,
		Emergency: snapshot.Emergency,
	}, indentationChar)
}

func (api *restApi) setMode(c echo.Context) error {
	var request modeRequest
	if err := c.Bind(&request); err != nil {
		return returnBindError(c, err)
	}
	if request.Mode == nil {
		return returnBadRequest(c, "No mode provided")
	}
	if _, err := api.device.SetMode(*request.Mode); err != nil {
		return returnRejected(c, err)
	}
	return api.getMode(c)
}

func (api *restApi) triggerEmergency(c echo.Context) error {
	snapshot := api.device.TriggerEmergency()
	return c.JSONPretty(http.StatusOK, snapshot, indentationChar)
}

// leaves emergency mode, the target mode is optional
func (api *restApi) exitEmergency(c echo.Context) error {
	var request modeRequest
	if err := c.Bind(&request); err != nil {
		return returnBindError(c, err)
	}
	target := api.device.ExitMode()
	if request.Mode != nil {
		target = *request.Mode
	}
	if _, err := api.device.ExitEmergency(target); err != nil {
		return returnRejected(c, err)
	}
	return api.getMode(c)
}

func (api *restApi) getLock(c echo.Context) error {
	snapshot := api.device.Snapshot()
	return c.JSONPretty(http.StatusOK, &lockResponse{Locked: snapshot.Locked}, indentationChar)
}

func (api *restApi) setLock(c echo.Context) error {
	var request lockRequest
	if err := c.Bind(&request); err != nil {
		return returnBindError(c, err)
	}
	if request.Locked == nil {
		return returnBadRequest(c, "No lock state provided")
	}
	locked := api.device.SetLocked(*request.Locked)
	return c.JSONPretty(http.StatusOK, &lockResponse{Locked: locked}, indentationChar)
}

func (api *restApi) toggleLock(c echo.Context) error {
	locked := api.device.ToggleLock()
	return c.JSONPretty(http.StatusOK, &lockResponse{Locked: locked}, indentationChar)
}

func (api *restApi) getSensitivityControl(c echo.Context) error {
	snapshot := api.device.Snapshot()
	return c.JSONPretty(http.StatusOK, &sensitivityResponse{ActiveControl: snapshot.ActiveControl}, indentationChar)
}

func (api *restApi) setSensitivityControl(c echo.Context) error {
	var request sensitivityRequest
	if err := c.Bind(&request); err != nil {
		return returnBindError(c, err)
	}
	if request.ActiveControl == nil {
		return returnBadRequest(c, "No active_control provided")
	}
	channel, err := pacing.ParseChannel(*request.ActiveControl)
	if err != nil {
		return returnRejected(c, err)
	}
	channel, err = api.device.SetActiveSensitivityControl(channel)
	if err != nil {
		return returnRejected(c, err)
	}
	return c.JSONPretty(http.StatusOK, &sensitivityResponse{ActiveControl: channel}, indentationChar)
}
