package models

// Column headers as published by the grid operator and kept in the master table.
const (
	ColHour     = "Timme"
	ColForecast = "Prognos (MW)"
	ColActual   = "Förbrukning (MW)"
	ColDate     = "Date"
	ColDateTime = "DateTime"
)

// MasterColumns is the column order of the master CSV and its mirrors.
var MasterColumns = []string{ColHour, ColForecast, ColActual, ColDate, ColDateTime}
