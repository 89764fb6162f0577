package lark

import (
	"context"
	"fmt"
	"io"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"go.uber.org/zap"
)

// fileMessenger is the subset of MessageAPI used for delivery
type fileMessenger interface {
	UploadFile(ctx context.Context, fileName string, content io.Reader) (string, error)
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Deliverer sends finished exports as file messages to one chat or user
type Deliverer struct {
	messages      fileMessenger
	receiveIDType string
	receiveID     string
	logger        *zap.Logger
}

// NewDeliverer creates a deliverer posting to receiveID, whose kind is
// given by receiveIDType ("chat_id", "open_id", "email", ...)
func NewDeliverer(messages *MessageAPI, receiveIDType, receiveID string, logger *zap.Logger) *Deliverer {
	return &Deliverer{
		messages:      messages,
		receiveIDType: receiveIDType,
		receiveID:     receiveID,
		logger:        logger,
	}
}

// Deliver uploads content and posts it as a file message
func (d *Deliverer) Deliver(ctx context.Context, fileName string, content io.Reader) error {
	fileKey, err := d.messages.UploadFile(ctx, fileName, content)
	if err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	body, err := fileMessageContent(fileKey)
	if err != nil {
		return fmt.Errorf("failed to build file message: %w", err)
	}

	messageID, err := d.messages.SendMessage(ctx, d.receiveIDType, d.receiveID, "file", body)
	if err != nil {
		return fmt.Errorf("failed to send export: %w", err)
	}

	d.logger.Info("Export delivered",
		zap.String("file_name", fileName),
		zap.String("message_id", messageID))
	return nil
}

// Verify interface compliance
var _ port.ExportDeliverer = (*Deliverer)(nil)
