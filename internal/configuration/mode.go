package configuration

import (
	"fmt"
	"reflect"

	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/mitchellh/mapstructure"
)

// modeHookFunc allows modes to be configured by name ("VVI") or number (1)
func modeHookFunc() mapstructure.DecodeHookFuncType {
	modeType := reflect.TypeOf(pacing.Mode(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != modeType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return pacing.ParseMode(v)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return pacing.ParseMode(fmt.Sprintf("%v", v))
		default:
			return data, nil
		}
	}
}
