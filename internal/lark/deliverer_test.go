package lark

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockFileMessenger mocks the file upload and message calls
type MockFileMessenger struct {
	mock.Mock
}

func (m *MockFileMessenger) UploadFile(ctx context.Context, fileName string, content io.Reader) (string, error) {
	data, _ := io.ReadAll(content)
	args := m.Called(fileName, string(data))
	return args.String(0), args.Error(1)
}

func (m *MockFileMessenger) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	args := m.Called(receiveIDType, receiveID, msgType, content)
	return args.String(0), args.Error(1)
}

func TestDeliverer_Deliver(t *testing.T) {
	messages := new(MockFileMessenger)
	messages.On("UploadFile", "bjr-sola24.xlsx", "workbook").Return("file_v2_abc", nil)
	messages.On("SendMessage", "chat_id", "oc_123", "file", `{"file_key":"file_v2_abc"}`).Return("om_1", nil)

	d := &Deliverer{messages: messages, receiveIDType: "chat_id", receiveID: "oc_123", logger: zap.NewNop()}

	require.NoError(t, d.Deliver(context.Background(), "bjr-sola24.xlsx", strings.NewReader("workbook")))
	messages.AssertExpectations(t)
}

func TestDeliverer_UploadFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	messages := new(MockFileMessenger)
	messages.On("UploadFile", "bjr.xlsx", "").Return("", boom)

	d := &Deliverer{messages: messages, receiveIDType: "chat_id", receiveID: "oc_123", logger: zap.NewNop()}

	err := d.Deliver(context.Background(), "bjr.xlsx", strings.NewReader(""))

	assert.ErrorIs(t, err, boom)
	messages.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
