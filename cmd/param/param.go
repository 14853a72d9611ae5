package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/device"
	"github.com/spf13/cobra"
)

var address string

var Command = &cobra.Command{
	Use:              "param",
	Short:            "Read and change parameters of a running daemon",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&address,
		"address", "a",
		"",
		"Address of the pace2go api (default is derived from the api config)",
	)
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func baseUrl() string {
	if len(address) > 0 {
		return address
	}
	configuration.ReadConfigFile()
	host := configuration.CurrentConfig.Api.Host
	if host == "0.0.0.0" || len(host) <= 0 {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, configuration.CurrentConfig.Api.Port)
}

// call performs a request against the api and decodes the answer into result
func call(method string, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequest(method, baseUrl()+path, reader)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK {
		var e apiError
		if json.Unmarshal(data, &e) == nil && len(e.Message) > 0 {
			return fmt.Errorf("%s: %s", e.Name, e.Message)
		}
		return fmt.Errorf("unexpected status %s", response.Status)
	}
	return json.Unmarshal(data, result)
}

func formatInfo(info device.ParameterInfo) string {
	if info.Async {
		return fmt.Sprintf("%s: ASYNC", info.Parameter)
	}
	return fmt.Sprintf("%s: %v %s (%v..%v)", info.Parameter, info.Value, info.Unit, info.Min, info.Max)
}
