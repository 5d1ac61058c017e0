// ABOUTME: MCP tool implementations for patient data queries and analysis.
// ABOUTME: Validation and insufficient-data outcomes return structured payloads.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/nmrastogi/patient-mcp/internal/analysis"
	"github.com/nmrastogi/patient-mcp/internal/storage"
	"github.com/nmrastogi/patient-mcp/internal/timeparse"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultQueryLimit caps read tools when the caller does not set one.
const DefaultQueryLimit = 1000

// UnlimitedQueryLimit requests every matching record.
const UnlimitedQueryLimit = -1

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_glucose_data",
		Description: "Get glucose readings, optionally filtered by date range",
	}, s.handleGetGlucoseData)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_sleep_data",
		Description: "Get sleep sessions, optionally filtered by date range",
	}, s.handleGetSleepData)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_exercise_data",
		Description: "Get exercise sessions, optionally filtered by date range",
	}, s.handleGetExerciseData)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "detect_patterns",
		Description: "Detect glucose, sleep, and exercise patterns (dawn phenomenon, time in range, schedules)",
	}, s.handleDetectPatterns)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "detect_anomalies",
		Description: "Flag statistically anomalous glucose readings by z-score",
	}, s.handleDetectAnomalies)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_hypoglycemic_event",
		Description: "Find the most recent hypoglycemic reading with trend and recovery",
	}, s.handleFindHypoglycemicEvent)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_correlations",
		Description: "Correlate daily exercise, sleep, and glucose aggregates",
	}, s.handleFindCorrelations)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_cgm_status",
		Description: "CGM monitoring health: windowed stats and data completeness",
	}, s.handleGetCGMStatus)
}

// Tool input/output types

type queryInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"Range start (YYYY-MM-DD); requires end_date"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Range end (YYYY-MM-DD inclusive); requires start_date"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Max records (default 1000; -1 for unlimited)"`
}

type rangeInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"Range start (YYYY-MM-DD); requires end_date"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Range end (YYYY-MM-DD inclusive); requires start_date"`
}

type patternsInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"Range start (YYYY-MM-DD); requires end_date"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Range end (YYYY-MM-DD inclusive); requires start_date"`
	Mode      string `json:"mode,omitempty" jsonschema:"Which analysis to run: glucose, sleep, exercise, or all (default all)"`
}

type anomaliesInput struct {
	StartDate string  `json:"start_date,omitempty" jsonschema:"Range start (YYYY-MM-DD); requires end_date"`
	EndDate   string  `json:"end_date,omitempty" jsonschema:"Range end (YYYY-MM-DD inclusive); requires start_date"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Z-score threshold factor (default 2.5)"`
}

type hypoInput struct {
	StartDate string  `json:"start_date,omitempty" jsonschema:"Range start (YYYY-MM-DD); requires end_date"`
	EndDate   string  `json:"end_date,omitempty" jsonschema:"Range end (YYYY-MM-DD inclusive); requires start_date"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Hypoglycemia boundary in mg/dL (default 70)"`
}

type errorOutput struct {
	Error string `json:"error"`
}

type queryOutput struct {
	Table        string `json:"table_name"`
	TotalRecords int    `json:"total_records"`
	DateRange    any    `json:"date_range"`
	Limit        int    `json:"limit"`
	Data         any    `json:"data"`
}

type patternsOutput struct {
	PatientID string                         `json:"patient_id"`
	Mode      string                         `json:"mode"`
	DateRange any                            `json:"date_range"`
	Glucose   *analysis.GlucosePatternReport `json:"glucose,omitempty"`
	Sleep     *analysis.SleepPatternReport   `json:"sleep,omitempty"`
	Exercise  *analysis.ExercisePatternReport `json:"exercise,omitempty"`
}

// parseRange validates the date-range filter: both-or-neither, YYYY-MM-DD,
// end not before start. The string return is a validation message for the
// caller; a non-empty message means no work was attempted.
func parseRange(startDate, endDate string) (storage.DateRange, string) {
	if startDate == "" && endDate == "" {
		return storage.DateRange{}, ""
	}
	if startDate == "" || endDate == "" {
		return storage.DateRange{}, "start_date and end_date must be provided together"
	}

	start, err := timeparse.ParseDate(startDate)
	if err != nil {
		return storage.DateRange{}, fmt.Sprintf("invalid start_date %q: expected YYYY-MM-DD", startDate)
	}
	end, err := timeparse.ParseDate(endDate)
	if err != nil {
		return storage.DateRange{}, fmt.Sprintf("invalid end_date %q: expected YYYY-MM-DD", endDate)
	}
	if end.Before(start) {
		return storage.DateRange{}, "end_date must not be before start_date"
	}
	return storage.DateRange{Start: start, End: end}, ""
}

func echoRange(r storage.DateRange) any {
	if r.IsZero() {
		return "all"
	}
	return map[string]string{
		"start_date": r.Start.Format("2006-01-02"),
		"end_date":   r.End.Format("2006-01-02"),
	}
}

// Tool handlers

func (s *Server) handleGetGlucoseData(ctx context.Context, req *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	r, limit, errOut := validateQuery(input)
	if errOut != nil {
		return nil, errOut, nil
	}

	samples, err := s.store.ListGlucose(s.patientID, r, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list glucose: %w", err)
	}
	return nil, queryOutput{
		Table:        "glucose",
		TotalRecords: len(samples),
		DateRange:    echoRange(r),
		Limit:        limit,
		Data:         samples,
	}, nil
}

func (s *Server) handleGetSleepData(ctx context.Context, req *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	r, limit, errOut := validateQuery(input)
	if errOut != nil {
		return nil, errOut, nil
	}

	sessions, err := s.store.ListSleep(s.patientID, r, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list sleep: %w", err)
	}
	return nil, queryOutput{
		Table:        "sleep",
		TotalRecords: len(sessions),
		DateRange:    echoRange(r),
		Limit:        limit,
		Data:         sessions,
	}, nil
}

func (s *Server) handleGetExerciseData(ctx context.Context, req *mcp.CallToolRequest, input queryInput) (*mcp.CallToolResult, any, error) {
	r, limit, errOut := validateQuery(input)
	if errOut != nil {
		return nil, errOut, nil
	}

	sessions, err := s.store.ListExercise(s.patientID, r, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list exercise: %w", err)
	}
	return nil, queryOutput{
		Table:        "exercise",
		TotalRecords: len(sessions),
		DateRange:    echoRange(r),
		Limit:        limit,
		Data:         sessions,
	}, nil
}

func validateQuery(input queryInput) (storage.DateRange, int, *errorOutput) {
	r, msg := parseRange(input.StartDate, input.EndDate)
	if msg != "" {
		return storage.DateRange{}, 0, &errorOutput{Error: msg}
	}
	if input.Limit < UnlimitedQueryLimit {
		return storage.DateRange{}, 0, &errorOutput{Error: "limit must be a positive integer, or -1 for unlimited"}
	}
	limit := input.Limit
	if limit == 0 {
		limit = DefaultQueryLimit
	}
	return r, limit, nil
}

func (s *Server) handleDetectPatterns(ctx context.Context, req *mcp.CallToolRequest, input patternsInput) (*mcp.CallToolResult, any, error) {
	mode := input.Mode
	if mode == "" {
		mode = "all"
	}
	switch mode {
	case "glucose", "sleep", "exercise", "all":
	default:
		return nil, errorOutput{Error: fmt.Sprintf("unknown mode %q: use glucose, sleep, exercise, or all", input.Mode)}, nil
	}

	r, msg := parseRange(input.StartDate, input.EndDate)
	if msg != "" {
		return nil, errorOutput{Error: msg}, nil
	}

	snap, err := s.cache.Snapshot(s.patientID, r)
	if err != nil {
		return nil, nil, err
	}

	out := patternsOutput{PatientID: s.patientID, Mode: mode, DateRange: echoRange(r)}
	if mode == "glucose" || mode == "all" {
		out.Glucose = analysis.GlucosePatterns(snap.Glucose)
	}
	if mode == "sleep" || mode == "all" {
		out.Sleep = analysis.SleepPatterns(snap.Sleep)
	}
	if mode == "exercise" || mode == "all" {
		out.Exercise = analysis.ExercisePatterns(snap.Exercise)
	}
	return nil, out, nil
}

func (s *Server) handleDetectAnomalies(ctx context.Context, req *mcp.CallToolRequest, input anomaliesInput) (*mcp.CallToolResult, any, error) {
	if input.Threshold < 0 {
		return nil, errorOutput{Error: "threshold must be positive"}, nil
	}
	r, msg := parseRange(input.StartDate, input.EndDate)
	if msg != "" {
		return nil, errorOutput{Error: msg}, nil
	}

	snap, err := s.cache.Snapshot(s.patientID, r)
	if err != nil {
		return nil, nil, err
	}
	return nil, analysis.DetectAnomalies(snap.Glucose, input.Threshold), nil
}

func (s *Server) handleFindHypoglycemicEvent(ctx context.Context, req *mcp.CallToolRequest, input hypoInput) (*mcp.CallToolResult, any, error) {
	if input.Threshold < 0 {
		return nil, errorOutput{Error: "threshold must be positive"}, nil
	}
	r, msg := parseRange(input.StartDate, input.EndDate)
	if msg != "" {
		return nil, errorOutput{Error: msg}, nil
	}

	snap, err := s.cache.Snapshot(s.patientID, r)
	if err != nil {
		return nil, nil, err
	}
	return nil, analysis.FindHypoglycemicEvent(snap.Glucose, input.Threshold), nil
}

func (s *Server) handleFindCorrelations(ctx context.Context, req *mcp.CallToolRequest, input rangeInput) (*mcp.CallToolResult, any, error) {
	r, msg := parseRange(input.StartDate, input.EndDate)
	if msg != "" {
		return nil, errorOutput{Error: msg}, nil
	}

	snap, err := s.cache.Snapshot(s.patientID, r)
	if err != nil {
		return nil, nil, err
	}
	return nil, analysis.Correlations(snap.Glucose, snap.Sleep, snap.Exercise), nil
}

func (s *Server) handleGetCGMStatus(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	report, err := analysis.CGMStatus(s.store, s.patientID)
	if err != nil {
		return nil, nil, fmt.Errorf("cgm status: %w", err)
	}
	return nil, report, nil
}
