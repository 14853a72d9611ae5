package configuration

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	// AdminToken grants full control to websocket clients, other
	// authenticated clients may only change sensitivities. Empty disables auth.
	AdminToken string `json:"adminToken"`
}
