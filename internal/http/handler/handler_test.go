package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mmaioli/projects/internal/model"
	"github.com/mmaioli/projects/internal/repository/postgres"
	"github.com/mmaioli/projects/internal/service"
	serviceMocks "github.com/mmaioli/projects/internal/service/mocks"
	"github.com/mmaioli/projects/internal/storage"
)

func decodeMessage(t *testing.T, body io.Reader) string {
	t.Helper()
	var mb messageBody
	require.NoError(t, json.NewDecoder(body).Decode(&mb))
	return mb.Message
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateComponent(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Post("/components", CreateComponent(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/components", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "preprocessing").
			Return(&model.Component{ID: "x", Name: "preprocessing"}, nil).Once()

		resp := post(`{"name":"preprocessing"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Message string          `json:"message"`
			Payload model.Component `json:"payload"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "Component created", body.Message)
		assert.Equal(t, "x", body.Payload.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		resp := post(`{}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "name is required", decodeMessage(t, resp.Body))
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, "")
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := post(`{name`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "name is required", decodeMessage(t, resp.Body))
	})

	t.Run("service error yields bare 500", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "preprocessing").
			Return(nil, errors.New("db fail")).Once()

		resp := post(`{"name":"preprocessing"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		data, _ := io.ReadAll(resp.Body)
		assert.Empty(t, data)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdateComponent(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Patch("/components/:componentId", UpdateComponent(mockSvc))

	patch := func(id, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPatch, "/components/"+id, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success with parameters", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, "comp-1", "", map[string]any{"epochs": float64(3)}).
			Return(&model.Component{ID: "comp-1", Name: "original"}, nil).Once()

		resp := patch("comp-1", `{"parameters":{"epochs":3}}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, "missing", "x", nil).
			Return(nil, service.ErrNotFound).Once()

		resp := patch("missing", `{"name":"x"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "The specified component does not exist", decodeMessage(t, resp.Body))
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := patch("comp-1", `{`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid request body", decodeMessage(t, resp.Body))
	})
}

func TestDeleteComponent(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Delete("/components/:componentId", DeleteComponent(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "comp-1").Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/components/comp-1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Component deleted", decodeMessage(t, resp.Body))
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "missing").Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/components/missing", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "The specified component does not exist", decodeMessage(t, resp.Body))
	})
}

func TestListComponents(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Get("/components", ListComponents(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).
			Return([]model.Component{{ID: "1"}, {ID: "2"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Payload []model.Component `json:"payload"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body.Payload, 2)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("db fail")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetComponent(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Get("/components/:componentId", GetComponent(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "comp-1").
			Return(&model.Component{ID: "comp-1", Name: "preprocessing"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components/comp-1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Payload model.Component `json:"payload"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "preprocessing", body.Payload.Name)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components/missing", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "The specified component does not exist", decodeMessage(t, resp.Body))
	})
}

// A malformed identifier must travel the whole chain — handler, service,
// repository against the UUID column — and come back as the same 400 an
// unknown identifier produces, not as a 500.
func TestGetComponent_MalformedID(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	compSvc := service.NewComponentService(nil, postgres.NewComponentPostgres(db), t.TempDir())

	app := fiber.New()
	app.Get("/components/:componentId", GetComponent(compSvc))

	dbMock.ExpectQuery("SELECT (.+) FROM components WHERE id = ?").
		WithArgs("foo").
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "foo"`})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components/foo", nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "The specified component does not exist", decodeMessage(t, resp.Body))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

// multipartRequest builds a multipart POST carrying the given files under the
// "file" field.
func multipartRequest(t *testing.T, url string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadComponentFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Post("/components/:componentId/files", UploadComponentFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("UploadAttachment", mock.Anything, "comp-1", mock.MatchedBy(func(fhs []*multipart.FileHeader) bool {
			return len(fhs) == 1 && fhs[0].Filename == "data.csv"
		})).Return(&storage.ObjectInfo{Key: "components/comp-1/data.csv"}, nil).Once()

		resp, _ := app.Test(multipartRequest(t, "/components/comp-1/files", map[string]string{"data.csv": "1,2"}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		data, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "File uploaded successfully", string(data))
		mockSvc.AssertExpectations(t)
	})

	t.Run("zero files is a silent success", func(t *testing.T) {
		mockSvc.On("UploadAttachment", mock.Anything, "comp-1", mock.Anything).
			Return(nil, nil).Once()

		resp, _ := app.Test(multipartRequest(t, "/components/comp-1/files", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		data, _ := io.ReadAll(resp.Body)
		assert.Empty(t, data)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/components/comp-1/files", strings.NewReader("raw"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "a multipart form is required", decodeMessage(t, resp.Body))
	})

	t.Run("attachment limit", func(t *testing.T) {
		mockSvc.On("UploadAttachment", mock.Anything, "comp-1", mock.Anything).
			Return(nil, service.ErrAttachmentLimit).Once()

		resp, _ := app.Test(multipartRequest(t, "/components/comp-1/files", map[string]string{"data.csv": "1,2"}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Attachment limit reached", decodeMessage(t, resp.Body))
	})

	t.Run("too many files", func(t *testing.T) {
		mockSvc.On("UploadAttachment", mock.Anything, "comp-1", mock.Anything).
			Return(nil, service.ErrTooManyFiles).Once()

		resp, _ := app.Test(multipartRequest(t, "/components/comp-1/files",
			map[string]string{"one.csv": "1", "two.csv": "2"}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Maximum 1 file is allowed", decodeMessage(t, resp.Body))
	})
}

func TestDownloadComponentFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Get("/components/:componentId/files/:fileName", DownloadComponentFile(mockSvc))

	t.Run("success streams the object", func(t *testing.T) {
		content := "col1,col2\n"
		mockSvc.On("OpenAttachment", mock.Anything, "comp-1", "data.csv").
			Return(io.NopCloser(strings.NewReader(content)), storage.ObjectInfo{
				Key:         "components/comp-1/data.csv",
				Size:        int64(len(content)),
				ContentType: "text/csv",
			}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components/comp-1/files/data.csv", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="data.csv"`, resp.Header.Get(fiber.HeaderContentDisposition))
		assert.Equal(t, "text/csv", resp.Header.Get(fiber.HeaderContentType))
		data, _ := io.ReadAll(resp.Body)
		assert.Equal(t, content, string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		mockSvc.On("OpenAttachment", mock.Anything, "comp-1", "missing.csv").
			Return(nil, storage.ObjectInfo{}, service.ErrFileNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/components/comp-1/files/missing.csv", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "The specified file does not exist", decodeMessage(t, resp.Body))
	})
}

func TestStreamSize(t *testing.T) {
	assert.Equal(t, 0, streamSize(0))
	assert.Equal(t, 1024, streamSize(1024))

	// Sizes past the platform int range select chunked transfer.
	if math.MaxInt64 > math.MaxInt {
		assert.Equal(t, -1, streamSize(math.MaxInt64))
	} else {
		assert.Equal(t, math.MaxInt, streamSize(math.MaxInt64))
	}
}

func TestDownloadBase64(t *testing.T) {
	mockSvc := new(serviceMocks.MockComponentService)
	app := fiber.New()
	app.Post("/components/download-base64", DownloadBase64(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/components/download-base64", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		mockSvc.On("DownloadBase64", mock.Anything, "components/x/hello.txt").
			Return("aGVsbG8=", nil).Once()

		resp := post(`{"path":"components/x/hello.txt"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Payload string `json:"payload"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "aGVsbG8=", body.Payload)
	})

	t.Run("missing path", func(t *testing.T) {
		mockSvc.On("DownloadBase64", mock.Anything, "").
			Return("", service.ErrPathRequired).Once()

		resp := post(`{}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "path is required", decodeMessage(t, resp.Body))
	})

	t.Run("missing key", func(t *testing.T) {
		mockSvc.On("DownloadBase64", mock.Anything, "nope/missing.bin").
			Return("", service.ErrFileNotFound).Once()

		resp := post(`{"path":"nope/missing.bin"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "The specified file does not exist", decodeMessage(t, resp.Body))
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("unexpected")
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var mb messageBody
		json.NewDecoder(resp.Body).Decode(&mb)
		assert.NotEmpty(t, mb.Message)
	})

	t.Run("unhandled error becomes bare 500", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		data, _ := io.ReadAll(resp.Body)
		assert.Empty(t, data)
	})
}
