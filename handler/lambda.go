package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const (
	routeFrame  = "/api/frame"
	routeImage  = "/api/og"
	routeHealth = "/api/health"

	imageCacheControl = "public, immutable, no-transform, max-age=31536000"
)

// Handle serves API Gateway proxy events for every route.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	path := strings.TrimRight(req.Path, "/")

	switch path {
	case routeFrame:
		if req.HTTPMethod != http.MethodPost && req.HTTPMethod != http.MethodGet {
			return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}, corrID), nil
		}
		var doc string
		if body, err := requestBody(req); err != nil {
			doc = h.unreadableFrame(ctx, err, corrID)
		} else {
			doc = h.Frame(ctx, body, corrID)
		}
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers("text/html; charset=utf-8", corrID),
			Body:       doc,
		}, nil

	case routeImage:
		if req.HTTPMethod != http.MethodGet {
			return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}, corrID), nil
		}
		png, err := h.Image(ctx, queryParam(req, "text"), corrID)
		if err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Headers:    headers("text/plain; charset=utf-8", corrID),
				Body:       imageErrorBody,
			}, nil
		}
		hdrs := headers("image/png", corrID)
		hdrs["Cache-Control"] = imageCacheControl
		return events.APIGatewayProxyResponse{
			StatusCode:      http.StatusOK,
			Headers:         hdrs,
			Body:            base64.StdEncoding.EncodeToString(png),
			IsBase64Encoded: true,
		}, nil

	case routeHealth:
		return jsonResponse(http.StatusOK, h.health(), corrID), nil
	}
	return jsonResponse(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"}, corrID), nil
}

func requestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	b := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("handler: decode base64 body: %w", err)
		}
		b = decoded
	}
	if len(b) > maxFrameBodyBytes {
		return nil, fmt.Errorf("handler: body exceeds %d bytes", maxFrameBodyBytes)
	}
	return b, nil
}

func queryParam(req events.APIGatewayProxyRequest, key string) string {
	if v, ok := req.QueryStringParameters[key]; ok {
		return v
	}
	if vs := req.MultiValueQueryStringParameters[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func headers(contentType, corrID string) map[string]string {
	return map[string]string{
		"Content-Type":      contentType,
		HeaderCorrelationID: corrID,
	}
}

func jsonResponse(status int, v any, corrID string) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"INTERNAL"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers("application/json", corrID),
		Body:       string(b),
	}
}
