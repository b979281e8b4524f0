// Package model はドメインモデルを定義する。
package model

import "time"

// WeddingDateFormat は挙式日のシリアライズ形式。
// 時刻・タイムゾーンを持たないカレンダー日付のみを扱う。
const WeddingDateFormat = "2006-01-02"

// Wedding はユーザーが所有する結婚式プランニングレコードを表す。
// 所有ユーザーごとに最大1件のみ存在する。
type Wedding struct {
	ID          string
	CoupleName  string
	WeddingDate time.Time
	OwnerID     string
	// PartnerID は招待されたパートナーのユーザーID。未招待の場合はnil。
	PartnerID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateString は挙式日をYYYY-MM-DD形式で返す。
func (w *Wedding) DateString() string {
	return w.WeddingDate.Format(WeddingDateFormat)
}
