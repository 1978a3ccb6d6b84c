/*
Package config loads scanstore configuration.

Values are layered: built-in defaults, then an optional YAML file, then
SCANSTORE_* environment variables (a .env file is read first when present).
The merged configuration is validated before use.

	backend: dynamodb
	dynamodb:
	  region: eu-west-1
	  table: scans
	retry:
	  maxRetries: 5
	  initialDelay: 200ms
*/
package config
