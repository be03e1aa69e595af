package client

import (
	"context"
	"fmt"
)

// SearchTypeAll asks the API to search every source category.
const SearchTypeAll = "all"

type ContextRequest struct {
	Query         string `json:"query"`
	SearchType    string `json:"search_type"`
	MaxNumResults int    `json:"max_num_results"`
	MaxPrice      int    `json:"max_price"`
}

type Result struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Content        string  `json:"content,omitempty"`
	Description    string  `json:"description,omitempty"`
	Source         string  `json:"source,omitempty"`
	Price          float64 `json:"price,omitempty"`
	Length         int     `json:"length,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
	DataType       string  `json:"data_type,omitempty"`
}

type ContextResponse struct {
	Success               bool     `json:"success"`
	Error                 string   `json:"error,omitempty"`
	TxID                  string   `json:"tx_id,omitempty"`
	Query                 string   `json:"query,omitempty"`
	Results               []Result `json:"results"`
	TotalDeductionDollars float64  `json:"total_deduction_dollars,omitempty"`
	TotalCharacters       int      `json:"total_characters,omitempty"`
}

// Context retrieves ranked context snippets for a query. Result order is the
// API's relevance order.
func (c *Client) Context(ctx context.Context, request ContextRequest) (*ContextResponse, error) {
	var response ContextResponse
	if err := c.postJSON(ctx, "/knowledge", request, &response); err != nil {
		return nil, fmt.Errorf("fetching context for %q: %w", request.Query, err)
	}
	if !response.Success {
		message := response.Error
		if message == "" {
			message = "request was not successful"
		}
		return nil, &APIError{Message: message}
	}
	return &response, nil
}
