// Package apierr は各ドメインパッケージ共通のエラーモデル。
// 以前は assets/lends/attendance でそれぞれ同型のものを持っていたが、ここに寄せた。
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	mysql "github.com/go-sql-driver/mysql"
)

type Code string

const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodePolicyViolation Code = "POLICY_VIOLATION"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeStorage         Code = "STORAGE_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeRateLimited     Code = "RATE_LIMITED"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func Invalid(msg string) *APIError  { return &APIError{Code: CodeInvalidInput, Message: msg} }
func Policy(msg string) *APIError   { return &APIError{Code: CodePolicyViolation, Message: msg} }
func NotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }

func Unauthorized(msg string) *APIError { return &APIError{Code: CodeUnauthorized, Message: msg} }
func Forbidden(msg string) *APIError    { return &APIError{Code: CodeForbidden, Message: msg} }

// Storage は下位ストアの失敗を包む。既に APIError ならそのまま返す。
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var api *APIError
	if errors.As(err, &api) {
		return err
	}
	return &APIError{Code: CodeStorage, Message: "storage failure", Err: err}
}

// CodeOf は err の Code を返す。APIError でなければ STORAGE_ERROR 扱い。
func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeStorage
}

func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodePolicyViolation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MySQL のエラー番号
const (
	mysqlDuplicateEntry = 1062
	mysqlFKViolation    = 1452
)

func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func IsForeignKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlFKViolation
}

// ---------- handler helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func BodyFrom(err error) errorDTO {
	var api *APIError
	if errors.As(err, &api) {
		// Storage の場合 Message は固定文言。ドライバのメッセージはクライアントに出さない
		return Body(api.Code, api.Message)
	}
	return Body(CodeStorage, "storage failure")
}

// Respond は err を HTTP ステータスとエラーボディに変換して書き込む
func Respond(c *gin.Context, err error) {
	c.JSON(HTTPStatus(err), BodyFrom(err))
}

// Abort はミドルウェア用
func Abort(c *gin.Context, status int, code Code, msg string) {
	c.AbortWithStatusJSON(status, Body(code, msg))
}
