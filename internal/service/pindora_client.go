package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"varaamo/backend/config"
)

// AccessCodeClient talks to the keyless-entry service (Pindora). The backend
// only ever revokes codes: they are provisioned by an external process.
type AccessCodeClient interface {
	DeleteAccessCode(ctx context.Context, reservationID string) error
}

type pindoraClient struct {
	client *resty.Client
	logger *zap.Logger
}

// NewPindoraClient creates a resty-backed AccessCodeClient.
func NewPindoraClient(cfg *config.PindoraConfig, logger *zap.Logger) AccessCodeClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Pindora-Api-Key", cfg.APIKey).
		SetRetryCount(2)

	return &pindoraClient{client: client, logger: logger}
}

// DeleteAccessCode revokes the access code of one reservation. A 404 means
// the code is already gone and counts as success.
func (c *pindoraClient) DeleteAccessCode(ctx context.Context, reservationID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/v1/reservation/%s", reservationID))
	if err != nil {
		c.logger.Error("pindora request failed",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
		return err
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil
	case resp.IsError():
		c.logger.Error("pindora rejected access code deletion",
			zap.String("reservation_id", reservationID),
			zap.Int("status", resp.StatusCode()))
		return fmt.Errorf("pindora delete failed with status %d", resp.StatusCode())
	default:
		return nil
	}
}
