// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, wedding, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeSetupRequired        = "SETUP_REQUIRED"
	ErrCodeWeddingNotFound      = "WEDDING_NOT_FOUND"
	ErrCodeInvalidDate          = "INVALID_DATE"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeGuestNotFound        = "GUEST_NOT_FOUND"
	ErrCodeBudgetItemNotFound   = "BUDGET_ITEM_NOT_FOUND"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeTaskNotFound         = "TASK_NOT_FOUND"
	ErrCodeSupplierNotFound     = "SUPPLIER_NOT_FOUND"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError は登録済みメールアドレスエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewConfirmationRequiredError はメール確認待ち状態を通知するエラーを生成する。
// 登録自体は成功しているため失敗通知とは区別して扱う。
func NewConfirmationRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeConfirmationRequired,
		Message:  "登録を完了するにはメールを確認してください。",
		Category: "auth",
		Action:   "受信トレイの確認メールのリンクを開いてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewSetupRequiredError は結婚式の初期設定が未完了の場合のエラーを生成する。
func NewSetupRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSetupRequired,
		Message:  "結婚式の初期設定が完了していません。",
		Category: "wedding",
		Action:   "初期設定フォームから結婚式を作成してください。",
	}
}

// NewWeddingNotFoundError は結婚式レコードが見つからない場合のエラーを生成する。
func NewWeddingNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeWeddingNotFound,
		Message:  "結婚式のデータが見つかりません。",
		Category: "wedding",
		Action:   "初期設定を完了してから再度お試しください。",
	}
}

// NewInvalidDateError は日付形式が不正な場合のエラーを生成する。
func NewInvalidDateError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s", value),
		Category: "validation",
		Action:   "日付はYYYY-MM-DD形式で指定してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewGuestNotFoundError は招待客が見つからない場合のエラーを生成する。
func NewGuestNotFoundError(guestID string) *APIError {
	return &APIError{
		Code:     ErrCodeGuestNotFound,
		Message:  fmt.Sprintf("指定された招待客が見つかりません: %s", guestID),
		Category: "wedding",
		Action:   "招待客リストを再読み込みしてください。",
	}
}

// NewBudgetItemNotFoundError は支出項目が見つからない場合のエラーを生成する。
func NewBudgetItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeBudgetItemNotFound,
		Message:  fmt.Sprintf("指定された支出項目が見つかりません: %s", itemID),
		Category: "wedding",
		Action:   "予算リストを再読み込みしてください。",
	}
}

// NewCategoryNotFoundError は予算カテゴリが見つからない場合のエラーを生成する。
func NewCategoryNotFoundError(categoryID string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %s", categoryID),
		Category: "validation",
		Action:   "カテゴリ一覧から選択してください。",
	}
}

// NewTaskNotFoundError はタスクが見つからない場合のエラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "wedding",
		Action:   "タスクリストを再読み込みしてください。",
	}
}

// NewSupplierNotFoundError は業者が見つからない場合のエラーを生成する。
func NewSupplierNotFoundError(supplierID string) *APIError {
	return &APIError{
		Code:     ErrCodeSupplierNotFound,
		Message:  fmt.Sprintf("指定された業者が見つかりません: %s", supplierID),
		Category: "wedding",
		Action:   "業者リストを再読み込みしてください。",
	}
}
