package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	dom "github.com/ray-SDJ/comparison/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UserRequest is the JSON body for POST /users and PUT /users/{id}.
// Pointer fields let binding tell a missing key from a zero value.
type UserRequest struct {
	ID    *int64  `json:"id"`
	Name  *string `json:"name" binding:"required"`
	Email *string `json:"email" binding:"required"`
	Age   *int    `json:"age" binding:"required"`
}

// UserResponse is the wire form of a user. ID is omitted until persisted.
type UserResponse struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToDomain converts a bound request into a user. The id is taken only when
// the key was present and non-null.
func (r UserRequest) ToDomain() dom.User {
	var u dom.User
	if r.ID != nil {
		u.ID = *r.ID
	}
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Age != nil {
		u.Age = *r.Age
	}
	return u
}

// DecodeUser parses a JSON user. Malformed JSON, a missing required field or
// a field of the wrong type yields an error wrapping domain.ErrDecode.
func DecodeUser(data []byte) (dom.User, error) {
	var req UserRequest
	if err := binding.JSON.BindBody(data, &req); err != nil {
		return dom.User{}, fmt.Errorf("%w: %s", dom.ErrDecode, decodeMessage(err))
	}
	return req.ToDomain(), nil
}

// decodeMessage turns json and validator errors into a client-facing message.
func decodeMessage(err error) string {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "request body is not valid JSON"
	case errors.As(err, &typeErr) && typeErr.Field == "":
		return "request body must be a JSON object"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s must be %s", typeErr.Field, kindName(typeErr.Type))
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		names := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			names[i] = strings.ToLower(fe.Field())
		}
		if len(names) == 1 {
			return names[0] + " is required"
		}
		return strings.Join(names, ", ") + " are required"
	}
	return "request body is invalid"
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	}
	return "a " + t.Kind().String()
}

func UserToResponse(u dom.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Age:   u.Age,
	}
}

func UsersToResponses(list []dom.User) []UserResponse {
	out := make([]UserResponse, len(list))
	for i := range list {
		out[i] = UserToResponse(list[i])
	}
	return out
}
