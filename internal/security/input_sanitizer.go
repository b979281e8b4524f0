// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService はユーザー入力の自由テキスト（カップル名、招待客名、
// タスクのタイトル・説明、業者名など）をサニタイズし、保存データへの
// HTML/スクリプト混入を防ぐ。bluemondayのStrictPolicyをベースとした
// 全タグ除去ポリシーを使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService はユーザー入力サニタイズ機能のインターフェースを定義する。
// サービス層での保存前に使用される。
type InputSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグをすべて除去し、前後の空白を取り除いて返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのHTMLタグを除去し、テキストのみを残す。
// 表示用のリッチテキストは扱わないため、許可タグは一切設けない。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグをすべて除去し、前後の空白を取り除いて返す。
func (s *inputSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
