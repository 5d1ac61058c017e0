// ABOUTME: MCP resource implementations for patient data.
// ABOUTME: Provides patient://recent, patient://today, and patient://summary.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/analysis"
	"github.com/nmrastogi/patient-mcp/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "patient://recent",
		Name:        "Recent Readings",
		Description: "Glucose readings from the last hour",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "patient://today",
		Name:        "Today's Data",
		Description: "All samples recorded today across the three streams",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "patient://summary",
		Name:        "Monitoring Summary",
		Description: "CGM monitoring status with windowed statistics",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	readings, err := s.store.RecentGlucose(s.patientID, time.Now().Add(-time.Hour), 100)
	if err != nil {
		return nil, fmt.Errorf("recent glucose: %w", err)
	}

	result := map[string]any{
		"patient_id": s.patientID,
		"window":     "last hour",
		"count":      len(readings),
		"readings":   readings,
	}
	return jsonResource("patient://recent", result)
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	r := storage.DateRange{Start: today, End: today}

	glucose, err := s.store.ListGlucose(s.patientID, r, 0)
	if err != nil {
		return nil, fmt.Errorf("list glucose: %w", err)
	}
	sleep, err := s.store.ListSleep(s.patientID, r, 0)
	if err != nil {
		return nil, fmt.Errorf("list sleep: %w", err)
	}
	exercise, err := s.store.ListExercise(s.patientID, r, 0)
	if err != nil {
		return nil, fmt.Errorf("list exercise: %w", err)
	}

	result := map[string]any{
		"date":     today.Format("2006-01-02"),
		"glucose":  glucose,
		"sleep":    sleep,
		"exercise": exercise,
		"counts": map[string]int{
			"glucose":  len(glucose),
			"sleep":    len(sleep),
			"exercise": len(exercise),
		},
	}
	return jsonResource("patient://today", result)
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	report, err := analysis.CGMStatus(s.store, s.patientID)
	if err != nil {
		return nil, fmt.Errorf("cgm status: %w", err)
	}
	return jsonResource("patient://summary", report)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
