package xerr

import (
	"errors"
	"fmt"
)

// Kind 错误类别，用于区分用户输入错误与服务端错误，调用方不需要匹配错误字符串
type Kind int

const (
	KindInternal Kind = iota
	KindInputValidation
	KindModelUnavailable
	KindEmptyCandidateSet
	KindUpstreamService
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "input_validation"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindEmptyCandidateSet:
		return "empty_candidate_set"
	case KindUpstreamService:
		return "upstream_service"
	default:
		return "internal"
	}
}

// CodeError 自定义错误结构
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	cause   error
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("Code: %d, Message: %s, Cause: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func (e *CodeError) Unwrap() error { return e.cause }

// New 创建新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg, Kind: kindForCode(code)}
}

func kindForCode(code int) Kind {
	if code >= 400 && code < 500 {
		return KindInputValidation
	}
	return KindInternal
}

// 常用通用错误码
const (
	BadRequest          = 400
	TooManyRequests     = 429
	InternalServerError = 500
)

// 常用预定义错误
var (
	ErrServerError = New(InternalServerError, "internal server error")
	ErrParam       = New(BadRequest, "invalid request body")
)

// InputValidation 用户输入错误（400，不重试）
func InputValidation(format string, args ...any) *CodeError {
	return &CodeError{Code: BadRequest, Message: fmt.Sprintf(format, args...), Kind: KindInputValidation}
}

// EmptyCandidateSet 滑窗未生成任何候选肽段（400）
func EmptyCandidateSet(format string, args ...any) *CodeError {
	return &CodeError{Code: BadRequest, Message: fmt.Sprintf(format, args...), Kind: KindEmptyCandidateSet}
}

// ModelUnavailable 模型或分词器未加载（500）
func ModelUnavailable(cause error) *CodeError {
	return &CodeError{Code: InternalServerError, Message: "prediction model is not available", Kind: KindModelUnavailable, cause: cause}
}

// Upstream 外部服务失败，上游信息透传给调用方（500）
func Upstream(msg string, cause error) *CodeError {
	return &CodeError{Code: InternalServerError, Message: msg, Kind: KindUpstreamService, cause: cause}
}

// Internal 其它内部错误，对外只暴露通用信息
func Internal(cause error) *CodeError {
	return &CodeError{Code: InternalServerError, Message: ErrServerError.Message, Kind: KindInternal, cause: cause}
}

// KindOf 返回错误链上第一个 CodeError 的类别；非 CodeError 视为内部错误
func KindOf(err error) Kind {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// Is 判断 err 是否属于指定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
