// Package config loads and saves the rulm configuration file.
//
// Values are resolved by viper in the usual order: bound command-line flags,
// RULM_* environment variables, the YAML file, then defaults. Header values
// may reference environment variables as ${VAR} or $VAR so secrets can live
// in a .env file instead of the config.
//
// An example configuration:
//
//	endpoint: https://api.rulm.alexkuk.ru/v1/complete
//	model: saiga-7b-q4
//	default_max_tokens: 128
//	timeout: 5m
//	headers:
//	  Authorization: Bearer ${RULM_TOKEN}
//	models:
//	  - name: saiga-7b-q4
//	    temperature: 0.2
//	    max_tokens: 2000
package config
