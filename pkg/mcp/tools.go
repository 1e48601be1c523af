package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/period"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

// Tool name constants.
const (
	ToolNameCompare     = "tallymark_compare"
	ToolNamePeaks       = "tallymark_peaks"
	ToolNameSummary     = "tallymark_summary"
	ToolNamePeriods     = "tallymark_periods"
	ToolNameTrend       = "tallymark_trend"
	ToolNameAnnotations = "tallymark_annotations"
)

// MaxPeakCount caps the peaks tool.
const MaxPeakCount = views.MaxPeakCount

// Sentinel errors for tool input validation.
var (
	// ErrNoService indicates the server was built without a dataset.
	ErrNoService = errors.New("no dataset loaded")
	// ErrPeakCount indicates count is outside 0..MaxPeakCount.
	ErrPeakCount = views.ErrPeakCount
)

// Input types (auto-generate JSON schemas via struct tags).

// CompareInput is the input schema for the tallymark_compare tool.
type CompareInput struct {
	Magnitude float64 `json:"magnitude"        jsonschema:"positive casualty count to compare"`
	Scale     string  `json:"scale,omitempty"  jsonschema:"daily (default) or cumulative"`
	Lang      string  `json:"lang,omitempty"   jsonschema:"en (default) or ar"`
	Random    bool    `json:"random,omitempty" jsonschema:"pick a random qualifying benchmark instead of the best"`
	Seed      uint64  `json:"seed,omitempty"   jsonschema:"seed for random selection"`
}

// PeaksInput is the input schema for the tallymark_peaks tool.
type PeaksInput struct {
	Metric string `json:"metric,omitempty" jsonschema:"killed (default) or a category such as children"`
	Count  int    `json:"count,omitempty"  jsonschema:"number of peaks (default 10)"`
	Window *int   `json:"window,omitempty" jsonschema:"minimum distance between peaks in war weeks; 0 disables"`
	Lang   string `json:"lang,omitempty"   jsonschema:"en (default) or ar"`
}

// SummaryInput is the input schema for the tallymark_summary tool.
type SummaryInput struct {
	Lang string `json:"lang,omitempty" jsonschema:"en (default) or ar"`
}

// PeriodsInput is the input schema for the tallymark_periods tool.
type PeriodsInput struct {
	Granularity string `json:"granularity,omitempty" jsonschema:"week_of_war (default), weekday, calendar_week or calendar_month"`
	Metric      string `json:"metric,omitempty"      jsonschema:"killed (default) or a category"`
}

// TrendInput is the input schema for the tallymark_trend tool.
type TrendInput struct {
	Metric string `json:"metric,omitempty" jsonschema:"killed (default) or a category"`
	Window int    `json:"window,omitempty" jsonschema:"trailing days (default 28, negative for the whole series)"`
}

// AnnotationsInput is the input schema for the tallymark_annotations tool.
type AnnotationsInput struct {
	Date string `json:"date,omitempty" jsonschema:"ISO date YYYY-MM-DD"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleCompare(ctx context.Context, _ *mcpsdk.CallToolRequest, in CompareInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.svc == nil {
		return errorResult(ErrNoService)
	}

	scale := relatability.ScaleDaily

	if in.Scale != "" {
		parsed, err := relatability.ParseScale(in.Scale)
		if err != nil {
			return errorResult(err)
		}

		scale = parsed
	}

	req := views.CompareRequest{Magnitude: in.Magnitude, Scale: scale, Lang: parseLang(in.Lang)}

	if in.Random {
		seed := in.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}

		req.Rand = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // selection variety, not security.
	}

	view, err := s.svc.Compare(ctx, req)
	if err != nil {
		return errorResult(err)
	}

	if view == nil {
		return textResult(fmt.Sprintf("No benchmark is comparable to %v at the %s scale.", in.Magnitude, scale))
	}

	return jsonResult(view)
}

func (s *Server) handlePeaks(ctx context.Context, _ *mcpsdk.CallToolRequest, in PeaksInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.svc == nil {
		return errorResult(ErrNoService)
	}

	if in.Count < 0 || in.Count > MaxPeakCount {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrPeakCount, in.Count, MaxPeakCount))
	}

	window := -1
	if in.Window != nil {
		window = max(*in.Window, 0)
	}

	list, err := s.svc.Peaks(ctx, views.PeaksRequest{
		Metric: casualty.Category(in.Metric),
		Count:  in.Count,
		Window: window,
		Lang:   parseLang(in.Lang),
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(list)
}

func (s *Server) handleSummary(ctx context.Context, _ *mcpsdk.CallToolRequest, in SummaryInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.svc == nil {
		return errorResult(ErrNoService)
	}

	view, err := s.svc.Summary(ctx, parseLang(in.Lang))
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(view)
}

func (s *Server) handlePeriods(_ context.Context, _ *mcpsdk.CallToolRequest, in PeriodsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.svc == nil {
		return errorResult(ErrNoService)
	}

	g := period.Granularity(in.Granularity)
	if g == "" {
		g = period.WeekOfWar
	}

	view, err := s.svc.Periods(g, casualty.Category(in.Metric))
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(view)
}

func (s *Server) handleTrend(_ context.Context, _ *mcpsdk.CallToolRequest, in TrendInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.svc == nil {
		return errorResult(ErrNoService)
	}

	view, err := s.svc.Trend(casualty.Category(in.Metric), in.Window)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(view)
}

func (s *Server) handleAnnotations(_ context.Context, _ *mcpsdk.CallToolRequest, in AnnotationsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.svc == nil {
		return errorResult(ErrNoService)
	}

	if in.Date != "" {
		_, err := casualty.ParseDate(in.Date)
		if err != nil {
			return errorResult(err)
		}
	}

	return jsonResult(s.svc.Annotations(in.Date))
}

func parseLang(s string) locale.Lang {
	if s == "" {
		return ""
	}

	return locale.Parse(s)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

func textResult(text string) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}, ToolOutput{Data: text}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
