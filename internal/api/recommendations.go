package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Makepad-fr/destinai/internal/model"
)

// Recommend asks for destinations matching the questionnaire. Anything other
// than exactly model.DestinationCount destinations is ErrBadResults.
func (c *Client) Recommend(ctx context.Context, q model.Questionnaire) (model.Recommendations, error) {
	var out model.Recommendations
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/recommendations", body: q}, &out); err != nil {
		return model.Recommendations{}, err
	}
	if len(out.Destinations) != model.DestinationCount {
		return model.Recommendations{}, fmt.Errorf("recommendations: got %d destinations: %w", len(out.Destinations), ErrBadResults)
	}
	return out, nil
}
