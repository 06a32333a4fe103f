package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models"
)

// ResultRepository はゲーム結果関連のデータベース操作を定義するインターフェースです。
type ResultRepository interface {
	// CreateResult は終了したセッションの結果レコードを作成します
	CreateResult(tx *sql.Tx, result models.Result) (*models.Result, error)

	// GetTopResults は上位N件の結果を取得します（ランキング用）
	GetTopResults(limit int) ([]models.ResultResponse, error)

	// GetUserBestResult は指定したユーザーの最高記録と順位を取得します
	GetUserBestResult(userID string) (*models.ResultResponse, error)
}

// resultRepositoryImpl はResultRepositoryインターフェースの実装です。
type resultRepositoryImpl struct {
	db *sql.DB
}

// NewResultRepository はResultRepositoryの新しいインスタンスを作成します。
func NewResultRepository(db *sql.DB) ResultRepository {
	return &resultRepositoryImpl{db: db}
}

const insertResultQuery = `
	INSERT INTO results (user_id, session_id, outcome, placement_points, lines_cleared, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

// CreateResult は新しいゲーム結果レコードを作成します。
func (r *resultRepositoryImpl) CreateResult(tx *sql.Tx, result models.Result) (*models.Result, error) {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	args := []interface{}{
		result.UserID, result.SessionID, result.Outcome,
		result.PlacementPoints, result.LinesCleared, result.CreatedAt,
	}

	// トランザクションの有無を確認して適切にクエリを実行
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRow(insertResultQuery, args...)
	} else {
		row = r.db.QueryRow(insertResultQuery, args...)
	}

	if err := row.Scan(&result.ID); err != nil {
		return nil, fmt.Errorf("ゲーム結果レコードの作成に失敗しました: %w", err)
	}
	return &result, nil
}

// GetTopResults は上位N件の結果を取得します（ランキング用）。
// 設置ポイントが多い順、同点なら消去ライン数が多い順、さらに先に記録した順です。
func (r *resultRepositoryImpl) GetTopResults(limit int) ([]models.ResultResponse, error) {
	query := `
		SELECT
			id, user_id, session_id, outcome, placement_points, lines_cleared, created_at,
			ROW_NUMBER() OVER (ORDER BY placement_points DESC, lines_cleared DESC, created_at ASC) AS rank
		FROM results
		ORDER BY placement_points DESC, lines_cleared DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("ゲーム結果取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := make([]models.ResultResponse, 0, limit)
	for rows.Next() {
		var res models.ResultResponse
		err := rows.Scan(&res.ID, &res.UserID, &res.SessionID, &res.Outcome,
			&res.PlacementPoints, &res.LinesCleared, &res.CreatedAt, &res.Rank)
		if err != nil {
			return nil, fmt.Errorf("ゲーム結果データのスキャンに失敗しました: %w", err)
		}
		results = append(results, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ゲーム結果取得中にエラーが発生しました: %w", err)
	}
	return results, nil
}

// GetUserBestResult は指定したユーザーの最高記録を取得し、その記録の順位を計算します。
// 記録が無い場合は nil, nil を返します。
func (r *resultRepositoryImpl) GetUserBestResult(userID string) (*models.ResultResponse, error) {
	query := `
		SELECT id, user_id, session_id, outcome, placement_points, lines_cleared, created_at
		FROM results
		WHERE user_id = $1
		ORDER BY placement_points DESC, lines_cleared DESC, created_at ASC
		LIMIT 1
	`

	var best models.ResultResponse
	err := r.db.QueryRow(query, userID).Scan(&best.ID, &best.UserID, &best.SessionID, &best.Outcome,
		&best.PlacementPoints, &best.LinesCleared, &best.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // ユーザーの記録が存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの最高記録取得に失敗しました: %w", err)
	}

	rankQuery := `
		SELECT COUNT(*) + 1
		FROM results
		WHERE placement_points > $1
		   OR (placement_points = $1 AND lines_cleared > $2)
		   OR (placement_points = $1 AND lines_cleared = $2 AND created_at < $3)
	`
	if err := r.db.QueryRow(rankQuery, best.PlacementPoints, best.LinesCleared, best.CreatedAt).Scan(&best.Rank); err != nil {
		return nil, fmt.Errorf("ユーザーランキング順位の計算に失敗しました: %w", err)
	}
	return &best, nil
}
