package configuration

type MqttConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientId string `json:"clientId"`
	Qos      byte   `json:"qos"`
}
