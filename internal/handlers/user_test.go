package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dom "github.com/ray-SDJ/comparison/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetAllUsers(ctx context.Context) ([]dom.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dom.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (dom.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(dom.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, u dom.User) (dom.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(dom.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, details dom.User) (dom.User, error) {
	args := m.Called(ctx, id, details)
	return args.Get(0).(dom.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestRouter(svc UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterUserRoutes(r.Group("/api"), NewUserHandler(svc))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

var ann = dom.User{ID: 1, Name: "Ann", Email: "ann@x.com", Age: 30}

func TestUserHandler_List(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetAllUsers", mock.Anything).Return([]dom.User{ann}, nil)

	w := do(newTestRouter(svc), http.MethodGet, "/api/users", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Ann","email":"ann@x.com","age":30}]`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestUserHandler_List_Empty(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetAllUsers", mock.Anything).Return([]dom.User{}, nil)

	w := do(newTestRouter(svc), http.MethodGet, "/api/users", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUserHandler_List_StorageError(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetAllUsers", mock.Anything).Return(nil, errors.New("pq: connection reset"))

	w := do(newTestRouter(svc), http.MethodGet, "/api/users", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "internal server error", resp["error"])
}

func TestUserHandler_GetByID(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetUserByID", mock.Anything, int64(1)).Return(ann, nil)

	w := do(newTestRouter(svc), http.MethodGet, "/api/users/1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, float64(1), resp["id"])
	assert.Equal(t, "ann@x.com", resp["email"])
	svc.AssertExpectations(t)
}

func TestUserHandler_GetByID_NotFound(t *testing.T) {
	svc := new(MockUserService)
	svc.On("GetUserByID", mock.Anything, int64(7)).Return(dom.User{}, dom.ErrNotFound)

	w := do(newTestRouter(svc), http.MethodGet, "/api/users/7", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", decodeBody(t, w)["error"])
}

func TestUserHandler_GetByID_InvalidID(t *testing.T) {
	svc := new(MockUserService)

	w := do(newTestRouter(svc), http.MethodGet, "/api/users/abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid user id", decodeBody(t, w)["error"])
	svc.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestUserHandler_Create(t *testing.T) {
	svc := new(MockUserService)
	in := dom.User{Name: "Ann", Email: "ann@x.com", Age: 30}
	svc.On("CreateUser", mock.Anything, in).Return(ann, nil)

	w := do(newTestRouter(svc), http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@x.com","age":30}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Ann","email":"ann@x.com","age":30}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestUserHandler_Create_BadRequest(t *testing.T) {
	tests := map[string]string{
		"invalid json":  `{invalid}`,
		"missing field": `{"name":"Ann","email":"ann@x.com"}`,
		"wrong type":    `{"name":"Ann","email":"ann@x.com","age":"thirty"}`,
		"empty body":    ``,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := new(MockUserService)

			w := do(newTestRouter(svc), http.MethodPost, "/api/users", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["error"])
			svc.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

func TestUserHandler_Create_ReadableDecodeError(t *testing.T) {
	svc := new(MockUserService)

	w := do(newTestRouter(svc), http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@x.com","age":"thirty"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed request: age must be an integer", decodeBody(t, w)["error"])
}

func TestUserHandler_Create_ServiceRejects(t *testing.T) {
	for _, err := range []error{dom.ErrValidation, dom.ErrDuplicate} {
		svc := new(MockUserService)
		svc.On("CreateUser", mock.Anything, mock.Anything).Return(dom.User{}, err)

		w := do(newTestRouter(svc), http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@x.com","age":30}`)

		assert.Equal(t, http.StatusBadRequest, w.Code, err.Error())
	}
}

func TestUserHandler_Update(t *testing.T) {
	svc := new(MockUserService)
	details := dom.User{Name: "Ann B", Email: "ann@x.com", Age: 31}
	svc.On("UpdateUser", mock.Anything, int64(1), details).Return(dom.User{ID: 1, Name: "Ann B", Email: "ann@x.com", Age: 31}, nil)

	w := do(newTestRouter(svc), http.MethodPut, "/api/users/1", `{"name":"Ann B","email":"ann@x.com","age":31}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Ann B","email":"ann@x.com","age":31}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestUserHandler_Update_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		err  error
		want int
	}{
		{"not found", "/api/users/9", `{"name":"Ann","email":"ann@x.com","age":30}`, dom.ErrNotFound, http.StatusNotFound},
		{"invalid data", "/api/users/1", `{"name":"Ann","email":"ann","age":30}`, dom.ErrValidation, http.StatusBadRequest},
		{"duplicate email", "/api/users/1", `{"name":"Ann","email":"bob@x.com","age":30}`, dom.ErrDuplicate, http.StatusBadRequest},
		{"malformed id", "/api/users/x1", `{"name":"Ann","email":"ann@x.com","age":30}`, nil, http.StatusBadRequest},
		{"malformed body", "/api/users/1", `[]`, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			if tt.err != nil {
				svc.On("UpdateUser", mock.Anything, mock.Anything, mock.Anything).Return(dom.User{}, tt.err)
			}

			w := do(newTestRouter(svc), http.MethodPut, tt.path, tt.body)

			assert.Equal(t, tt.want, w.Code)
			if tt.err == nil {
				svc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUserHandler_Delete(t *testing.T) {
	svc := new(MockUserService)
	svc.On("DeleteUser", mock.Anything, int64(1)).Return(nil)

	w := do(newTestRouter(svc), http.MethodDelete, "/api/users/1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	svc.AssertExpectations(t)
}

func TestUserHandler_Delete_Errors(t *testing.T) {
	svc := new(MockUserService)
	svc.On("DeleteUser", mock.Anything, int64(4)).Return(dom.ErrNotFound)

	r := newTestRouter(svc)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/users/4", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/api/users/four", "").Code)
}
