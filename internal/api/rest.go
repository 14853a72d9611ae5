package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type Options struct {
	Device *device.Device
	// Activity reports encoder activity on /health/, optional
	Activity *encoders.Activity
	// Websocket serves the push channel on /ws/, optional
	Websocket *WebsocketHub
	// Registerer enables request metrics when set
	Registerer prometheus.Registerer
}

type restApi struct {
	device    *device.Device
	activity  *encoders.Activity
	websocket *WebsocketHub
}

func CreateRestService(options Options) *echo.Echo {
	echoRest := CreateWebserver()

	echoRest.Use(middleware.CORS())
	echoRest.Use(middleware.Logger())

	if options.Registerer != nil {
		echoRest.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "pace2go_api",
			Registerer: options.Registerer,
		}))
	}

	api := &restApi{
		device:    options.Device,
		activity:  options.Activity,
		websocket: options.Websocket,
	}

	echoRest.GET("/alive/", isAlive)
	echoRest.GET("/state/", api.getState)
	echoRest.GET("/health/", api.getHealth)

	registerParameterEndpoints(echoRest, api)
	registerControlEndpoints(echoRest, api)
	registerEncoderEndpoints(echoRest, api)
	if api.websocket != nil {
		echoRest.GET("/ws/", api.websocket.handle)
	}

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (api *restApi) getState(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, api.device.Snapshot(), indentationChar)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}
