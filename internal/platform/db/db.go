package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"LIBRA-backend/internal/platform/config"
)

const driverName = "mysql"

func dsn(c config.DatabaseConfig, extra string) string {
	// DATE/DATETIME は time.Time で受けるので parseTime=true 必須
	s := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)
	if extra != "" {
		s += "&" + extra
	}
	return s
}

func Connect(c config.DatabaseConfig) (*sql.DB, error) {
	db, err := open(dsn(c, ""))
	if err != nil {
		return nil, err
	}

	// 接続プール（合算がMySQLの max_connections を超えないよう配分する）
	db.SetMaxOpenConns(40)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// ConnectForMigrate はマイグレーション専用。1ファイル複数文のため multiStatements を有効にする
func ConnectForMigrate(c config.DatabaseConfig) (*sql.DB, error) {
	return open(dsn(c, "multiStatements=true"))
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}
	return db, nil
}
