package config

// Application constants
const (
	AppName    = "Customer Churn Analysis Dashboard"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. CHURN_SERVER_PORT.
	EnvPrefix = "CHURN"

	// DefaultDatasetFile is the IBM Telco customer churn export.
	DefaultDatasetFile = "WA_Fn-UseC_-Telco-Customer-Churn.csv"

	// Malformed TotalCharges policies
	MalformedChargesFail = "fail"
	MalformedChargesSkip = "skip"
)
