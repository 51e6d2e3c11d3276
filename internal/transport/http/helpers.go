package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"classquiz-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decode reads a JSON body into dst and validates its struct tags. An empty
// body decodes as {}.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.Invalid("malformed request body: %v", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, field+" must be at least "+fe.Param()+" long")
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param()+" long")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return domain.Invalid("%s", strings.Join(msgs, "; "))
}

// jsonFieldName makes validator report fields by their JSON names.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return parseID(r.PathValue("id"), "id")
}

// queryID returns nil when the parameter is absent.
func queryID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Invalid("%s must be a valid UUID", field)
	}
	return id, nil
}
