package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/linemk/perfume-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/perfume-shop/internal/service"
)

var validate = newValidator()

// newValidator называет поля по json-тегам, чтобы ключи карты ошибок совпадали с телом запроса
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// errorResponse - тело ответа с ошибкой
type errorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// validationError несёт ошибки по полям
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.fields)
}

var errInvalidBody = errors.New("invalid request body")

// decodeAndValidate читает JSON из тела запроса и проверяет его тегами validate
func decodeAndValidate(r *http.Request, dst any) error {
	defer io.Copy(io.Discard, r.Body)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = validationMessage(fe)
			}
			return &validationError{fields: fields}
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "lt", "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	}
	return "Invalid value."
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeDetail(w http.ResponseWriter, log *slog.Logger, status int, detail string) {
	writeJSON(w, log, status, errorResponse{Detail: detail})
}

// statusFor сопоставляет ошибки сервиса со статусами HTTP
var statusFor = []struct {
	err    error
	status int
}{
	{service.ErrBadRequest, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrPermissionDenied, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// writeError - единая точка превращения ошибки в JSON ответ
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeJSON(w, log, http.StatusBadRequest, errorResponse{Detail: "validation failed", Errors: verr.fields})
		return
	}
	if errors.Is(err, errInvalidBody) {
		writeDetail(w, log, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			writeDetail(w, log, m.status, publicMessage(err, m.err))
			return
		}
	}
	log.Error("internal error", slog.Any("error", err))
	writeDetail(w, log, http.StatusInternalServerError, "internal server error")
}

// publicMessage отрезает от текста ошибки цепочку op-префиксов до сигнальной ошибки.
// "service.X: not found: perfume" -> "perfume not found"
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	idx := strings.Index(msg, sentinel.Error())
	if idx < 0 {
		return sentinel.Error()
	}
	rest := strings.TrimPrefix(msg[idx+len(sentinel.Error()):], ": ")
	switch {
	case rest == "":
		return sentinel.Error()
	case sentinel == service.ErrNotFound:
		return rest + " not found"
	}
	return rest
}

// actorID возвращает id пользователя из токена, 0 для анонимного запроса
func actorID(r *http.Request) int64 {
	id, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		return 0
	}
	return id
}

// pathID разбирает числовой параметр пути
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrBadRequest, name)
	}
	return id, nil
}

// queryID разбирает необязательный числовой параметр запроса
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", service.ErrBadRequest, name)
	}
	return &id, nil
}

// queryIDList разбирает список id через запятую: "1,2,3"
func queryIDList(r *http.Request, name string) ([]int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s", service.ErrBadRequest, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
