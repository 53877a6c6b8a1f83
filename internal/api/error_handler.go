package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/reservation"
	"github.com/sanosuguru/go-event-ticketing/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error  string                   `json:"error"`
	Code   int                      `json:"code,omitempty"`
	Fields []reservation.FieldError `json:"fields,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ビジネスルール違反（ValidationError）は422でフィールド単位の詳細を返す
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		message = "内部サーバーエラー"
		fields  []reservation.FieldError
	)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	var vErr *reservation.ValidationError
	if errors.As(err, &vErr) {
		code = http.StatusUnprocessableEntity
		message = vErr.Error()
		fields = vErr.FieldErrors()
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(code, ErrorResponse{
		Error:  message,
		Code:   code,
		Fields: fields,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
