package lark

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOpenAPI serves the token, file upload and message endpoints
type fakeOpenAPI struct {
	mu       sync.Mutex
	uploaded string
	fileName string
	message  map[string]string
	query    string
	auth     string
	failSend bool
}

func (f *fakeOpenAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/open-apis/auth/v3/tenant_access_token/internal":
		_, _ = io.WriteString(w, `{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`)
	case "/open-apis/im/v1/files":
		f.auth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		f.uploaded = string(data)
		f.fileName = r.FormValue("file_name")
		if f.fileName == "" {
			f.fileName = header.Filename
		}
		_, _ = io.WriteString(w, `{"code":0,"msg":"success","data":{"file_key":"file_v2_test"}}`)
	case "/open-apis/im/v1/messages":
		if f.failSend {
			_, _ = io.WriteString(w, `{"code":230002,"msg":"Bot/User can NOT be out of the chat."}`)
			return
		}
		f.query = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&f.message)
		_, _ = io.WriteString(w, `{"code":0,"msg":"success","data":{"message_id":"om_test"}}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestMessageAPI(t *testing.T, api *fakeOpenAPI) *MessageAPI {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := NewClient(Config{AppID: "cli_test", AppSecret: "secret", BaseURL: srv.URL}, zap.NewNop())
	require.NotNil(t, client.GetClient())
	return NewMessageAPI(client, zap.NewNop())
}

func TestMessageAPI_DeliversWorkbook(t *testing.T) {
	api := &fakeOpenAPI{}
	deliverer := NewDeliverer(newTestMessageAPI(t, api), "chat_id", "oc_reports", zap.NewNop())

	err := deliverer.Deliver(context.Background(), "bjr_sola24.xlsx", strings.NewReader("workbook"))
	require.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "workbook", api.uploaded)
	assert.Equal(t, "bjr_sola24.xlsx", api.fileName)
	assert.Equal(t, "Bearer t-test", api.auth)
	assert.Contains(t, api.query, "receive_id_type=chat_id")
	assert.Equal(t, "oc_reports", api.message["receive_id"])
	assert.Equal(t, "file", api.message["msg_type"])
	assert.JSONEq(t, `{"file_key":"file_v2_test"}`, api.message["content"])
}

func TestMessageAPI_SendMessageAPIError(t *testing.T) {
	api := &fakeOpenAPI{failSend: true}
	messages := newTestMessageAPI(t, api)

	_, err := messages.SendMessage(context.Background(), "chat_id", "oc_reports", "file", `{"file_key":"x"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=230002")
}
