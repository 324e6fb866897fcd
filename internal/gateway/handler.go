// Package gateway adapts the sealing service to AWS Lambda invocations coming
// from API Gateway or from direct calls.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/MarcoCaspani/pdfseal/internal/sealing"
)

// Request accepts both a proxy event, whose body holds {"payload": {...}}, and
// a direct invocation carrying the payload at the top level.
type Request struct {
	events.APIGatewayProxyRequest
	Payload *sealing.Order `json:"payload,omitempty"`
}

type Handler struct {
	service sealing.Service
	logger  *zap.Logger
}

func NewHandler(service sealing.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Handle never returns an error: every failure is shaped into a response so
// the invocation itself always succeeds.
func (h *Handler) Handle(ctx context.Context, req Request) (events.APIGatewayProxyResponse, error) {
	log := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		log = log.With(zap.String("request_id", lc.AwsRequestID))
	}

	sealReq, err := parseRequest(req)
	if err == nil {
		err = sealReq.Validate()
	}
	if err != nil {
		log.Warn("Error parsing event payload", zap.Error(err))
		return respondError(err), nil
	}

	result, err := h.service.Seal(ctx, *sealReq.Payload)
	if err != nil {
		log.Error("Sealing failed",
			zap.String("kind", string(sealing.KindOf(err))),
			zap.Error(err))
		return respondError(err), nil
	}

	body, err := json.Marshal(map[string]string{"url": result.URL})
	if err != nil {
		log.Error("Failed to encode response", zap.Error(err))
		return respondError(err), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func parseRequest(req Request) (*sealing.SealRequest, error) {
	if req.Body == "" {
		return &sealing.SealRequest{Payload: req.Payload}, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, invalidPayload(fmt.Errorf("decoding base64 body: %w", err))
		}
		body = decoded
	}

	var sealReq sealing.SealRequest
	if err := json.Unmarshal(body, &sealReq); err != nil {
		return nil, invalidPayload(fmt.Errorf("decoding body: %w", err))
	}
	return &sealReq, nil
}

func invalidPayload(err error) error {
	return &sealing.Error{Kind: sealing.KindInvalidPayload, Op: sealing.OpValidate, Err: err}
}

func respondError(err error) events.APIGatewayProxyResponse {
	status, msg := sealing.Describe(err)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       msg,
	}
}
