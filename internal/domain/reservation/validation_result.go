package reservation

import "strings"

// FieldError は単一フィールドの検証エラーを表す
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult は検証結果を表す直和型
// Success / Error / MultipleErrors のいずれかであり、
// ビジネスルール違反は例外ではなく値として表現される
type ValidationResult interface {
	// Valid は検証が成功したかを返す
	Valid() bool
	isValidationResult()
}

// Success は検証成功を表す
type Success struct{}

func (Success) Valid() bool         { return true }
func (Success) isValidationResult() {}

// Error は単一フィールドの検証失敗を表す
type Error struct {
	Message string
	Field   string
}

func (Error) Valid() bool         { return false }
func (Error) isValidationResult() {}

// MultipleErrors は複数フィールドの検証失敗を表す
// Errors が空のまま生成されることはない（違反ゼロは Success）
type MultipleErrors struct {
	Errors []FieldError
}

func (MultipleErrors) Valid() bool         { return false }
func (MultipleErrors) isValidationResult() {}

// FieldErrors は検証結果に含まれるフィールドエラーの一覧を返す
func FieldErrors(result ValidationResult) []FieldError {
	switch r := result.(type) {
	case Error:
		return []FieldError{{Field: r.Field, Message: r.Message}}
	case MultipleErrors:
		return r.Errors
	default:
		return nil
	}
}

// ValidationError は ValidationResult を error として上位層へ伝搬するラッパー
// ハンドラーはここからフィールドエラーを取り出してレスポンスに変換する
type ValidationError struct {
	Result ValidationResult
}

// NewValidationError は検証失敗の結果から ValidationError を作成する
func NewValidationError(result ValidationResult) *ValidationError {
	return &ValidationError{Result: result}
}

func (e *ValidationError) Error() string {
	errs := FieldErrors(e.Result)
	if len(errs) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(errs))
	for i, fe := range errs {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors は含まれるフィールドエラーの一覧を返す
func (e *ValidationError) FieldErrors() []FieldError {
	return FieldErrors(e.Result)
}
