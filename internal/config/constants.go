package config

import "time"

// Application constants
const (
	AppName    = "surveydash"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. SURVEYDASH_SERVER_PORT.
	EnvPrefix = "SURVEYDASH"

	// Source kinds
	SourceGoogle = "google"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"

	// WorkbookDataSheet names the workbook sheet holding the cleaned table.
	// Chart sheets are named by chart id, so no id may equal it.
	WorkbookDataSheet = "Dados"

	// Chart kinds
	ChartBar = "bar"
	ChartPie = "pie"

	// Defaults for the agronomists survey
	DefaultCredentialsFile = "cred.json"
	DefaultSpreadsheetURL  = "https://docs.google.com/spreadsheets/d/1AhsnUZFQ7yF9FypzeixHfiMAUtFgmGxj_Xebbuk8ESE/"
	DefaultTab             = "plan01"
	DefaultFetchTimeout    = 30 * time.Second

	SalaryColumn     = "Qual salário você ganha hoje"
	GraduationColumn = "Em que ano você se formou"
)
