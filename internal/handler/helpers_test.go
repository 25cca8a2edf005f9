package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ai-feedback-api/internal/config"
	"github.com/noah-isme/ai-feedback-api/internal/dto"
	"github.com/noah-isme/ai-feedback-api/internal/handler"
	"github.com/noah-isme/ai-feedback-api/internal/router"
	"github.com/noah-isme/ai-feedback-api/internal/service"
)

type envelope struct {
	Result  string          `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details map[string]any  `json:"details"`
}

type stubSubmissionService struct {
	mu        sync.Mutex
	payload   dto.SubmissionRequest
	video     *multipart.FileHeader
	result    dto.SubmissionResultResponse
	list      dto.SubmissionListResponse
	listQuery dto.SubmissionListQuery
	detail    dto.SubmissionDetailResponse
	err       error
}

func (s *stubSubmissionService) HandleSubmission(_ context.Context, payload dto.SubmissionRequest, video *multipart.FileHeader) (dto.SubmissionResultResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	s.video = video
	return s.result, s.err
}

func (s *stubSubmissionService) EvaluateSubmission(context.Context, uint, service.TraceContext) error {
	return s.err
}

func (s *stubSubmissionService) ListSubmissions(_ context.Context, query dto.SubmissionListQuery) (dto.SubmissionListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listQuery = query
	return s.list, s.err
}

func (s *stubSubmissionService) GetSubmissionDetail(context.Context, uint) (dto.SubmissionDetailResponse, error) {
	return s.detail, s.err
}

type stubRevisionService struct {
	created []dto.CreateRevisionRequest
	list    dto.RevisionListResponse
	detail  dto.RevisionResponse
	err     error
}

func (s *stubRevisionService) CreateRevision(_ context.Context, payload dto.CreateRevisionRequest) error {
	s.created = append(s.created, payload)
	return s.err
}

func (s *stubRevisionService) FindAllRevisions(context.Context, dto.RevisionListQuery) (dto.RevisionListResponse, error) {
	return s.list, s.err
}

func (s *stubRevisionService) FindRevisionByID(context.Context, uint) (dto.RevisionResponse, error) {
	return s.detail, s.err
}

func (s *stubRevisionService) Wait() {}

type appOptions struct {
	submissions *stubSubmissionService
	revisions   *stubRevisionService
	auth        service.AuthService
	jwt         fiber.Handler
	rateLimit   fiber.Handler
}

func newTestApp(t *testing.T, opts appOptions) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	if opts.submissions == nil {
		opts.submissions = &stubSubmissionService{}
	}
	if opts.revisions == nil {
		opts.revisions = &stubRevisionService{}
	}

	deps := router.Dependencies{
		SubmissionHandler:   handler.NewSubmissionHandler(opts.submissions, logger),
		RevisionHandler:     handler.NewRevisionHandler(opts.revisions, logger),
		JWTMiddleware:       opts.jwt,
		SubmissionRateLimit: opts.rateLimit,
		DisableMetrics:      true,
	}
	if opts.auth != nil {
		deps.AuthHandler = handler.NewAuthHandler(opts.auth, logger)
	}

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test"}, deps)
	return app
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func validateAgainst(t *testing.T, schema *jsonschema.Schema, raw []byte) {
	t.Helper()

	var document interface{}
	require.NoError(t, json.Unmarshal(raw, &document))
	require.NoError(t, schema.Validate(document))
}

func strPtr(value string) *string {
	return &value
}
