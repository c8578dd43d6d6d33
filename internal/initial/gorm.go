package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"NeighborGuard/internal/config"
	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// locationColumnDDL 通知位置列；gorm 不映射该列，按需补建
const locationColumnDDL = "ALTER TABLE Notifications ADD COLUMN location POINT SRID 4326 NULL"

func mysqlDSN(conf *config.Config) string {
	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	port := conf.MysqlConfig.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		conf.MysqlConfig.User, conf.MysqlConfig.Password, conf.MysqlConfig.Host, port, dbName)
}

// InitGorm 连接 MySQL 并迁移通知相关的两张表。
// users / user_settings / user_security_groups / Incidents / cameras 由其他服务维护，这里只读。
func InitGorm(conf *config.Config) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(mysql.Open(mysqlDSN(conf)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&entity.Notification{},
		&entity.NotificationRecipient{},
	); err != nil {
		return nil, err
	}

	if !db.Migrator().HasColumn(&entity.Notification{}, "location") {
		if err := db.Exec(locationColumnDDL).Error; err != nil {
			return nil, fmt.Errorf("add notification location column: %w", err)
		}
		zlog.Info("notification location column created")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	zlog.Info("mysql connected", zap.String("host", conf.MysqlConfig.Host), zap.String("database", conf.MysqlConfig.DatabaseName))
	return db, nil
}
