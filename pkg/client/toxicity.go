package client

import (
	"context"
	"strings"

	"github.com/turtacn/ToxInsight/pkg/errors"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

// Convert requests a 3D MOL block for smiles.
func (c *Client) Convert(ctx context.Context, smiles string) (*dto.ConvertResponse, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	var out dto.ConvertResponse
	if err := c.post(ctx, "/convert", dto.ConvertRequest{SMILES: smiles}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze runs the full analysis. The server answers 200 even for invalid
// SMILES, so callers should inspect AnalyzeResponse.Error and
// Toxicity.Failed().
func (c *Client) Analyze(ctx context.Context, smiles, prompt string) (*dto.AnalyzeResponse, error) {
	var out dto.AnalyzeResponse
	if err := c.post(ctx, "/analyze", dto.AnalyzeRequest{SMILES: smiles, Prompt: prompt}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chart returns the twelve endpoint probabilities in chart order.
func (c *Client) Chart(ctx context.Context, smiles string) (*dto.ChartResponse, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	var out dto.ChartResponse
	if err := c.post(ctx, "/chart", dto.ChartRequest{SMILES: smiles}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
