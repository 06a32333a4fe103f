package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// resultsSchema は結果保存に必要なテーブル定義です。
const resultsSchema = `
CREATE TABLE IF NOT EXISTS results (
	id               BIGSERIAL PRIMARY KEY,
	user_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	placement_points INTEGER NOT NULL,
	lines_cleared    INTEGER NOT NULL,
	created_at       TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS results_ranking_idx ON results (placement_points DESC, created_at ASC);
`

// DatabaseService provides methods for interacting with the database.
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService creates a new instance of DatabaseService and establishes a database connection.
func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	log.Printf("データベース接続を試行中: URLの最初の50文字: %s...", databaseURL[:min(len(databaseURL), 50)]) // URLの冒頭をログ出力
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Printf("DatabaseService Error: sql.Openに失敗しました: %v", err)
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	// データベース接続の確認 (Ping)
	if err := db.Ping(); err != nil {
		log.Printf("DatabaseService Error: db.Pingに失敗しました: %v", err)
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	s := &DatabaseService{DB: db}
	if err := s.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("データベースに正常に接続しました。")
	return s, nil
}

// InitSchema は results テーブルが無ければ作成します。
func (s *DatabaseService) InitSchema() error {
	if _, err := s.DB.Exec(resultsSchema); err != nil {
		return fmt.Errorf("スキーマの初期化に失敗しました: %w", err)
	}
	return nil
}

// Results はこの接続を使う ResultRepository を返します。
func (s *DatabaseService) Results() ResultRepository {
	return NewResultRepository(s.DB)
}

// Close closes the underlying connection pool.
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}
