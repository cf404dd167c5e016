package helper

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

func installTracing(db *gorm.DB) error {
	return db.Use(otelgorm.NewPlugin())
}
