package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		// The form is filled from phones on the same network, so bind all interfaces.
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/solarlist/data/history.db"
	}
	if cfg.Storage.DocumentsDir == "" {
		cfg.Storage.DocumentsDir = "/usr/local/var/solarlist/data/documents"
	}
	if cfg.Branding.CompanyName == "" {
		cfg.Branding.CompanyName = "Sua Empresa"
	}
}
