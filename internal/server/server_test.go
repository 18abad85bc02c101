package server

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"docqa-be/internal/bootstrap"
	"docqa-be/internal/config"
	"docqa-be/internal/controller"
	"docqa-be/internal/dto"
	"docqa-be/internal/entity"
	"docqa-be/internal/handler"
	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQA struct{}

func (stubQA) Ask(ctx context.Context, req *dto.DocQARequest) (*dto.DocQAResponse, error) {
	return &dto.DocQAResponse{Message: "ok"}, nil
}

func (stubQA) GetRecord(ctx context.Context, id string) (*entity.RequestRecord, error) {
	return &entity.RequestRecord{ID: id}, nil
}

type stubUploads struct{}

func (stubUploads) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	return fh.Filename, nil
}

func newTestServer() *Server {
	log := logger.NewNopLogger()
	cfg := &config.Config{App: config.AppConfig{CorsAllowedOrigins: "*"}}
	return New(cfg, &bootstrap.Container{
		HealthController: controller.NewHealthController(),
		UploadController: controller.NewUploadController(stubUploads{}, log),
		QAController:     controller.NewQAController(stubQA{}),
		ProgressHandler:  handler.NewProgressHandler(websocket.NewHub(nil, log), "", log),
		Logger:           log,
	})
}

func TestRoutes(t *testing.T) {
	app := newTestServer().GetApp()

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/ping", http.StatusOK},
		{http.MethodGet, "/api/v1/doc-qa/abc", http.StatusOK},
		{http.MethodGet, "/api/v1/ws?user_id=U1", http.StatusUpgradeRequired},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestNotFoundBody(t *testing.T) {
	app := newTestServer().GetApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Route not found: GET /nope")
}
