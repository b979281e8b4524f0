package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/wedplan/internal/model"
)

// Persister はStoreのスナップショットを永続化するインターフェース。
// セッションレコードのdataカラムなど、耐久ストレージへの書き込みを抽象化する。
type Persister interface {
	// Save はスナップショットを書き出す。
	Save(snapshot Snapshot) error
	// Load は前回のスナップショットを読み込む。
	// 保存されたスナップショットが存在しない場合はゼロ値を返す。
	Load() (Snapshot, error)
}

// Snapshot は永続化される状態の射影を表す。
// パスワードハッシュなどの機微情報は含めない。
type Snapshot struct {
	UserRef     *SnapshotUser    `json:"user,omitempty"`
	WeddingRef  *SnapshotWedding `json:"wedding,omitempty"`
	SidebarOpen *bool            `json:"sidebar_open,omitempty"`
}

// SnapshotUser はスナップショット内のユーザー表現。
type SnapshotUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SnapshotWedding はスナップショット内の結婚式表現。
// 挙式日はカレンダー日付のみをYYYY-MM-DD形式で保持する。
type SnapshotWedding struct {
	ID          string  `json:"id"`
	CoupleName  string  `json:"couple_name"`
	WeddingDate string  `json:"wedding_date"`
	OwnerID     string  `json:"owner_id"`
	PartnerID   *string `json:"partner_id"`
}

// NewSnapshot はドメインモデルからスナップショットを構築する。
func NewSnapshot(user *model.User, wedding *model.Wedding, sidebarOpen bool) Snapshot {
	snapshot := Snapshot{SidebarOpen: &sidebarOpen}
	if user != nil {
		snapshot.UserRef = &SnapshotUser{
			ID:    user.ID,
			Name:  user.DisplayName(),
			Email: user.Email,
		}
	}
	if wedding != nil {
		snapshot.WeddingRef = &SnapshotWedding{
			ID:          wedding.ID,
			CoupleName:  wedding.CoupleName,
			WeddingDate: wedding.DateString(),
			OwnerID:     wedding.OwnerID,
			PartnerID:   wedding.PartnerID,
		}
	}
	return snapshot
}

// User はスナップショットからドメインのユーザーを復元する。
func (s Snapshot) User() *model.User {
	if s.UserRef == nil {
		return nil
	}
	return &model.User{
		ID:    s.UserRef.ID,
		Name:  s.UserRef.Name,
		Email: s.UserRef.Email,
	}
}

// Wedding はスナップショットからドメインの結婚式を復元する。
// 日付が解釈できない場合は復元を諦めてnilを返す。
func (s Snapshot) Wedding() *model.Wedding {
	if s.WeddingRef == nil {
		return nil
	}
	date, err := time.Parse(model.WeddingDateFormat, s.WeddingRef.WeddingDate)
	if err != nil {
		return nil
	}
	return &model.Wedding{
		ID:          s.WeddingRef.ID,
		CoupleName:  s.WeddingRef.CoupleName,
		WeddingDate: date,
		OwnerID:     s.WeddingRef.OwnerID,
		PartnerID:   s.WeddingRef.PartnerID,
	}
}

// EncodeSnapshot はスナップショットをJSONへシリアライズする。
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot はJSONからスナップショットを復元する。
// 空の入力にはゼロ値のスナップショットを返す。
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return Snapshot{}, nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode state snapshot: %w", err)
	}
	return snapshot, nil
}

// MemoryPersister はメモリ上にスナップショットを保持するPersister。
// テストおよび永続化先が確定する前のフォールバックに使用する。
type MemoryPersister struct {
	snapshot Snapshot
	saved    bool
}

// Save はスナップショットをメモリに保持する。
func (p *MemoryPersister) Save(snapshot Snapshot) error {
	p.snapshot = snapshot
	p.saved = true
	return nil
}

// Load は保持しているスナップショットを返す。
func (p *MemoryPersister) Load() (Snapshot, error) {
	return p.snapshot, nil
}

// compile-time interface check
var _ Persister = (*MemoryPersister)(nil)
