package database

import (
	"fmt"
	"log"
	"quest_edu_backend/internal/config"
	"quest_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// 唯一键冲突需要翻译成 gorm.ErrDuplicatedKey，入账去重依赖它
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认跳过自动迁移，显式传 -migrate / -migrate-only 才执行
	if cfg.Server.Mode == "release" && !cfg.ForceMigrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.CompletionEvent{},
		&model.CompletionAttempt{},
		&model.LearnerSummary{},
		&model.Mission{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认的世界地图任务节点（奖杯来源）
	var count int64
	db.Model(&model.Mission{}).Count(&count)
	if count == 0 {
		defaultMissions := []model.Mission{
			{Code: "mission_number_castle", Name: "数字城堡", World: "math", TrophyID: "trophy-number-castle"},
			{Code: "mission_fraction_forest", Name: "分数森林", World: "math", TrophyID: "trophy-fraction-forest"},
			{Code: "mission_galaxy_lab", Name: "星系实验室", World: "science", TrophyID: "trophy-galaxy-lab"},
			{Code: "mission_word_harbor", Name: "词语港湾", World: "language", TrophyID: "trophy-word-harbor"},
			{Code: "mission_history_gate", Name: "历史之门", World: "social_studies", TrophyID: "trophy-history-gate"},
		}
		for _, m := range defaultMissions {
			db.Create(&m)
		}
	}

	return db, nil
}
