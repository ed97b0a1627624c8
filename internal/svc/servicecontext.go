package svc

import (
	"context"
	"log"
	"time"

	"tryfi/internal/chain"
	"tryfi/internal/config"
	"tryfi/internal/logic/confirm"
	"tryfi/internal/logic/session"
	"tryfi/internal/logic/widget"
	"tryfi/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServiceContext struct {
	Config   config.Config
	Store    model.WalletStore
	Chain    chain.Chain
	Sessions *session.Manager
	Widget   *widget.Manager
	Engine   *confirm.Engine
}

func NewServiceContext(c config.Config) *ServiceContext {
	db := initDB(c)
	store, err := model.NewWalletStore(db)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}

	ch, err := chain.Dial(context.Background(), c.RpcUrl, c.ChainId, store)
	if err != nil {
		log.Fatalf("连接 RPC 节点失败 (%s): %v", c.RpcUrl, err)
	}

	sessions := session.NewManager(store)
	if err := sessions.Load(context.Background()); err != nil {
		log.Fatalf("恢复会话失败: %v", err)
	}

	w := widget.NewManager(&c, ch, sessions)
	engine := confirm.NewEngine(&c, ch, store, sessions, w)

	return &ServiceContext{
		Config:   c,
		Store:    store,
		Chain:    ch,
		Sessions: sessions,
		Widget:   w,
		Engine:   engine,
	}
}

// initDB 初始化 sqlite 连接，配置连接池参数
func initDB(c config.Config) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(c.StorePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取数据库实例失败: %v", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

// Stop releases the chain connection. Called on shutdown.
func (s *ServiceContext) Stop() {
	s.Chain.Close()
}
