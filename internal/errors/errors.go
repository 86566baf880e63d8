package errors

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sort"
)

// Code 表示系统内的统一错误码。
type Code string

// Severity 描述错误的严重程度，决定日志级别。
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeNotInitialized    Code = "NOT_INITIALIZED"
	CodeConnectionFailure Code = "CONNECTION_FAILURE"
	CodeUserRejected      Code = "USER_REJECTED"
	CodeEncodingFailure   Code = "ENCODING_FAILURE"
	CodeSubmissionFailure Code = "SUBMISSION_FAILURE"
	CodeStorageFailure    Code = "STORAGE_FAILURE"
	CodePublishFailure    Code = "PUBLISH_FAILURE"
)

// Attributes 为错误码提供默认行为。
type Attributes struct {
	Message  string
	Severity Severity
	// Recoverable 表示该类错误在本层内部消化（记录日志后继续），不会返回给调用方。
	Recoverable bool
}

var registry = map[Code]Attributes{
	CodeUnknown:           {Message: "unknown error", Severity: SeverityCritical},
	CodeInvalidArgument:   {Message: "invalid argument", Severity: SeverityInfo},
	CodeNotInitialized:    {Message: "session not initialized", Severity: SeverityCritical},
	CodeConnectionFailure: {Message: "wallet connection failed", Severity: SeverityWarning},
	CodeUserRejected:      {Message: "request rejected by user", Severity: SeverityInfo},
	CodeEncodingFailure:   {Message: "call encoding failed", Severity: SeverityWarning},
	CodeSubmissionFailure: {Message: "transaction submission failed", Severity: SeverityWarning},
	CodeStorageFailure:    {Message: "storage failure", Severity: SeverityWarning, Recoverable: true},
	CodePublishFailure:    {Message: "event publish failure", Severity: SeverityInfo, Recoverable: true},
}

// AttributesOf 返回错误码对应的属性。若未注册则返回 UNKNOWN 的属性。
func AttributesOf(code Code) Attributes {
	if attr, ok := registry[code]; ok {
		return attr
	}
	return registry[CodeUnknown]
}

// Error 是系统内统一的错误类型。
type Error struct {
	code     Code
	message  string
	cause    error
	metadata map[string]string
}

// Option 定义可选配置。
type Option func(*Error)

// WithMetadata 附加额外信息。
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// New 创建一个新的错误实例。
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = AttributesOf(code).Message
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Wrap 在已有错误外包裹统一错误类型，原始错误可通过 errors.Is/As 取回。
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Unwrap 实现 errors.Unwrap。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is 允许通过 errors.Is 判断是否相同错误码。
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code 返回错误码。
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Message 返回错误信息。
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Metadata 返回附加信息的副本。
func (e *Error) Metadata() map[string]string {
	if e == nil || len(e.metadata) == 0 {
		return nil
	}
	clone := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		clone[k] = v
	}
	return clone
}

// LogValue 让错误以结构化字段写入 slog。
func (e *Error) LogValue() slog.Value {
	if e == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{
		slog.String("code", string(e.code)),
		slog.String("message", e.message),
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	keys := make([]string, 0, len(e.metadata))
	for k := range e.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, e.metadata[k]))
	}
	return slog.GroupValue(attrs...)
}

// From 尝试从 error 中解析统一错误类型。
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf 返回错误对应的错误码。
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}

// SeverityOf 返回错误严重程度。
func SeverityOf(err error) Severity {
	return AttributesOf(CodeOf(err)).Severity
}

// Recoverable 判断错误是否属于本层内部消化的类别。
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	return AttributesOf(CodeOf(err)).Recoverable
}

// LogLevel 将错误严重程度映射为 slog 级别。
func LogLevel(err error) slog.Level {
	switch SeverityOf(err) {
	case SeverityCritical:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
