// Package config provides configuration management for the myip CLI.
//
// The package uses a Provider interface to abstract configuration loading, with the
// primary implementation being filesystem-based configuration via YAML files.
//
// # Configuration Structure
//
//	api:
//	  base_url: https://myip.foo       # JSON and plain-text API root
//	  timeout: 5s
//	dual_stack:
//	  ipv4_url: https://ipv4.myip.foo/ip
//	  ipv6_url: https://ipv6.myip.foo/ip
//	  timeout: 5s                      # per request
//	  pin_family: true                 # dial tcp4/tcp6 explicitly
//	dns:
//	  resolvers: ["1.1.1.1:53"]        # empty = system resolver
//	  timeout: 5s
//	  retries: 1
//	monitor:
//	  cache_path: /tmp/myip_current.json
//	  interval: 5m
//	  fetch_timeout: 10s
//	  slack_webhook: https://hooks.slack.com/...
//	  discord_webhook: https://discord.com/api/webhooks/...
//	geoip:
//	  database: /usr/share/GeoIP/GeoLite2-Country.mmdb
//
// Keys missing from the file keep their default values.
//
// # Basic Usage
//
// Load configuration using the default path (~/.myip/config.yaml):
//
//	cfg, err := config.New().Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load configuration from a specific path:
//
//	cfg, err := config.NewWithPath(filesys.OS(), "/etc/myip.yaml").Load()
//
// # Environment
//
// These variables override file values:
//   - MYIP_API_URL: api.base_url
//   - SLACK_WEBHOOK: monitor.slack_webhook
//   - DISCORD_WEBHOOK: monitor.discord_webhook
//   - MYIP_GEOIP_DB: geoip.database
//
// # Validation
//   - URLs must be absolute http(s) URLs (webhooks only when set)
//   - API and DNS timeouts must be at least 1 second
//   - The dual-stack timeout must be at least 100ms
//   - DNS resolvers must be host:port
//   - The monitor interval must be at least 1 minute
//
// # Error Handling
//   - ErrInvalidConfig: Configuration validation failed
//   - ErrNoConfig: Configuration file not found (defaults are used)
package config
