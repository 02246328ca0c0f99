// Package config provides configuration loading for the churn dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables that are explicitly set (highest priority)
//	2. A YAML configuration file (config.yaml or configs/config.yaml, or --config)
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CHURN_<SECTION>_<FIELD>:
//
//	CHURN_SERVER_PORT=8501
//	CHURN_DATASET_FILE=/data/WA_Fn-UseC_-Telco-Customer-Churn.csv
//	CHURN_DATASET_MALFORMED_CHARGES=skip
//	CHURN_LOGGING_LEVEL=debug
//	CHURN_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// The merged configuration is validated with go-playground/validator struct
// tags; the first failing field is reported by its dotted path.
package config
