package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/HerbHall/showcase/internal/query"
)

// ResolveFunc answers a table query, usually a repository's Query method.
type ResolveFunc[T any] func(ctx context.Context, params query.Params) query.Result[T]

// QueryStatus maps a query result to its HTTP status: 400 for caller
// errors, 503 when the backend failed.
func QueryStatus(f *query.Failure) int {
	if f == nil {
		return http.StatusOK
	}
	if f.Code == query.CodeBackendUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// WriteQueryResult writes the {data, error} envelope.
func WriteQueryResult[T any](w http.ResponseWriter, res query.Result[T]) {
	WriteJSON(w, QueryStatus(res.Error), res)
}

// ListHandler serves a table query read from the URL query string.
func ListHandler[T any](resolve ResolveFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, fail := query.ParseValues(r.URL.Query())
		if fail != nil {
			WriteQueryResult(w, query.Failed[T](fail))
			return
		}
		WriteQueryResult(w, resolve(r.Context(), params))
	}
}

// QueryHandler serves a table query posted as a JSON Params body. An empty
// body, chunked or not, is the same as {}.
func QueryHandler[T any](resolve ResolveFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params query.Params
		if err := DecodeJSON(w, r, &params); err != nil && !errors.Is(err, ErrEmptyBody) {
			WriteQueryResult(w, query.Failed[T](&query.Failure{
				Code:    query.CodeInvalidParameter,
				Message: err.Error(),
			}))
			return
		}
		WriteQueryResult(w, resolve(r.Context(), params))
	}
}
