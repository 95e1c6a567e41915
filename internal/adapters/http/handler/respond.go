package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("handler: invalid request body")

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ListResponse は一覧系エンドポイントの共通レスポンスです。
type ListResponse[T any] struct {
	Results      []T `json:"results"`
	TotalResults int `json:"total_results"`
	TotalPages   int `json:"total_pages"`
	Page         int `json:"page"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeJSON は未知のフィールドを拒否してボディを読み込みます。allowEmpty が true なら空ボディを許容します。
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errInvalidBody)
	}
	return nil
}
