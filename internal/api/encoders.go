package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/markusressel/pace2go/internal/store"
	"github.com/markusressel/pace2go/internal/util"
)

type healthResponse struct {
	Status   string                    `json:"status"`
	State    store.Snapshot            `json:"state"`
	Buttons  map[string]bool           `json:"buttons"`
	Encoders []encoders.SourceActivity `json:"encoders"`
	Clients  int                       `json:"websocket_clients"`
}

func registerEncoderEndpoints(rest *echo.Echo, api *restApi) {
	rest.POST("/encoder/:"+urlParamId+"/reset/", api.resetEncoder)
	rest.POST("/debug/simulate/", api.simulate)
}

// re-anchors a stuck encoder at its current position
func (api *restApi) resetEncoder(c echo.Context) error {
	id := c.Param(urlParamId)
	source, err := encoders.ParseSource(id)
	if err != nil {
		return returnNotFound(c, id)
	}
	position := api.device.ResetEncoder(source)
	return c.JSONPretty(http.StatusOK, &encoderResponse{
		Source:   string(source),
		Position: position,
	}, indentationChar)
}

// injects encoder ticks without disturbing the tracking of the hardware position
func (api *restApi) simulate(c echo.Context) error {
	var request simulateRequest
	if err := c.Bind(&request); err != nil {
		return returnBindError(c, err)
	}
	if len(request.Source) <= 0 {
		request.Source = string(encoders.SourceRate)
	}
	if request.Delta == 0 {
		request.Delta = 1
	}
	source, err := encoders.ParseSource(request.Source)
	if err != nil {
		return returnBadRequest(c, err.Error())
	}

	// relative to the cursor, the hardware decoder never sees simulated movement
	api.device.OnTick(source, request.Delta)
	return c.JSONPretty(http.StatusOK, api.device.Snapshot(), indentationChar)
}

// returns the device state together with the buttons pressed since the
// last call, reading clears them
func (api *restApi) getHealth(c echo.Context) error {
	response := healthResponse{
		Status:  "ok",
		State:   api.device.Snapshot(),
		Buttons: api.device.ConsumeButtons(),
	}
	if api.activity != nil {
		response.Encoders = api.activity.Sources()
	} else {
		positions := api.device.Positions()
		for _, source := range util.SortedKeys(positions) {
			response.Encoders = append(response.Encoders, encoders.SourceActivity{
				Source:   source,
				Position: positions[source],
			})
		}
	}
	if api.websocket != nil {
		response.Clients = api.websocket.Count()
	}
	return c.JSONPretty(http.StatusOK, response, indentationChar)
}
