package bootstrap

import "github.com/kbukum/annotpipe/config"

// Config is satisfied by any struct embedding config.ServiceConfig through
// promoted methods, such as config.AppConfig.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
