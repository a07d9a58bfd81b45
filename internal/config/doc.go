// Package config loads livestore command configuration.
//
// Configuration comes from an optional YAML file (livestore.yaml by
// default), then environment variables prefixed with LIVESTORE_, then
// command-line flags applied by the caller.
//
// # Configuration File Structure
//
//	listen: localhost:8080
//	document: ./doc.yaml
//	debug: false
//	log:
//	  level: info      # debug, info, warn, error
//	  format: text     # text, json
//	host:
//	  maxQueue: 256
//	  maxSettlePasses: 100
//	metrics:
//	  enabled: true
//	  namespace: livestore
//
// # Environment
//
//	LIVESTORE_LISTEN, LIVESTORE_DOCUMENT, LIVESTORE_DEBUG,
//	LIVESTORE_LOG_LEVEL, LIVESTORE_LOG_FORMAT,
//	LIVESTORE_HOST_MAX_QUEUE, LIVESTORE_HOST_MAX_SETTLE_PASSES,
//	LIVESTORE_METRICS_ENABLED, LIVESTORE_METRICS_NAMESPACE
//
// # Usage
//
//	cfg, err := config.Resolve("livestore.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.NewLogger(os.Stderr)
package config
