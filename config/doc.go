// Package config loads fanlog settings from TOML or YAML and assembles a
// dispatcher with its destinations.
//
// A minimal TOML file:
//
//	device_id = "pump-7"
//	level = "info"
//
//	[file]
//	path = "/var/log/pump/app.log"
//
//	[syslog]
//	host = "logs.example.net"
//
// Load applies defaults and validates; Build is the composition root:
//
//	cfg, err := config.Load("fanlog.toml")
//	...
//	rt, err := config.Build(cfg, config.BuildOptions{Logger: zapLogger})
//	...
//	defer rt.Close()
//	rt.Dispatcher.Infof("ready")
package config
