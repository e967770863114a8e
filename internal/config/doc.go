// Package config loads and validates the dashboard configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file
//  3. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the environment first
// when present. Without an explicit path, Load uses SURVEYDASH_CONFIG or the
// first of surveydash.yaml, config.yaml, configs/surveydash.yaml and
// configs/config.yaml that exists.
//
// # Environment Variables
//
// Every variable is prefixed with SURVEYDASH and follows the struct nesting:
//
//	SURVEYDASH_SERVER_PORT=8080
//	SURVEYDASH_SOURCE_KIND=google
//	SURVEYDASH_SOURCE_CREDENTIALS_FILE=cred.json
//	SURVEYDASH_SOURCE_SPREADSHEET=https://docs.google.com/spreadsheets/d/<id>/
//	SURVEYDASH_SOURCE_TAB=plan01
//	SURVEYDASH_DASHBOARD_DECIMAL_SEPARATOR=,
//	SURVEYDASH_LOGGING_LEVEL=debug
//
// Charts are lists of structs and can only be configured in the file:
//
//	dashboard:
//	  charts:
//	    - id: salario
//	      title: Distribuição Percentual dos Salários
//	      kind: bar
//	      column: Qual salário você ganha hoje
//	      labels: ["R$1.000 - R$2.000", "R$2.000 - R$3.000"]
//	      strip_from_ticks: R$
//
// A chart list in the file replaces the default charts entirely.
//
// # Validation
//
// Load validates the result with go-playground/validator. Chart ids must be
// lowercase and URL safe, labels must be unique within a chart and colours
// must be hex colours.
package config
