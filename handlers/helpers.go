package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tabroom/allocation"
	"github.com/Dosada05/tabroom/brackets"
	"github.com/Dosada05/tabroom/draw"
	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readOptionalJSON is readJSON for endpoints whose body may be omitted.
func readOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return readJSON(w, r, dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

// infeasibleResponse reports which teams, judges and rules blocked the engine.
func infeasibleResponse(w http.ResponseWriter, r *http.Request, infeasible *models.InfeasibleError) {
	rules := make([]string, 0, len(infeasible.Rules))
	for _, rule := range infeasible.Rules {
		if s, ok := rule.(fmt.Stringer); ok {
			rules = append(rules, s.String())
		} else {
			rules = append(rules, string(rule.Kind()))
		}
	}
	errorResponse(w, r, http.StatusUnprocessableEntity, jsonResponse{
		"message": infeasible.Error(),
		"scope":   infeasible.Scope,
		"teams":   infeasible.Teams,
		"judges":  infeasible.Judges,
		"rules":   rules,
	})
}

func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var infeasible *models.InfeasibleError

	switch {
	case errors.As(err, &infeasible):
		infeasibleResponse(w, r, infeasible)

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrProposalNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, models.ErrPreconditionViolated),
		errors.Is(err, allocation.ErrStaleProposal):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, models.ErrInvalidSettings),
		errors.Is(err, draw.ErrInvalidRound),
		errors.Is(err, brackets.ErrInvalidSize),
		errors.Is(err, brackets.ErrDuplicateSeed),
		errors.Is(err, allocation.ErrUnknownSlot),
		errors.Is(err, allocation.ErrUnknownJudge),
		errors.Is(err, allocation.ErrDoubleBooked),
		errors.Is(err, allocation.ErrDuplicatePairing),
		errors.Is(err, allocation.ErrDuplicateJudge):
		badRequestResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}

	return id, nil
}

func getStageFromURL(r *http.Request) (models.Stage, error) {
	return parseStage(chi.URLParam(r, "stage"))
}

func parseStage(raw string) (models.Stage, error) {
	stage := models.Stage(raw)
	switch stage {
	case models.StagePreliminary, models.StageElimination:
		return stage, nil
	}
	return "", fmt.Errorf("invalid stage %q", raw)
}
