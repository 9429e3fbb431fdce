package garden

import (
	"context"
	"slices"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

// StoreRepository lists entities from the local sqlite store.
type StoreRepository struct {
	db *db.DB
}

func NewStoreRepository(d *db.DB) *StoreRepository {
	return &StoreRepository{db: d}
}

func (r *StoreRepository) ListZones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.db.Conn.WithContext(ctx).Order("name asc").Find(&zones).Error; err != nil {
		return nil, NewRepositoryError(SourceZones, err)
	}
	return zones, nil
}

func (r *StoreRepository) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	var sensors []models.Sensor
	if err := r.db.Conn.WithContext(ctx).Order("seq asc").Find(&sensors).Error; err != nil {
		return nil, NewRepositoryError(SourceSensors, err)
	}
	return sensors, nil
}

func (r *StoreRepository) ListSchedules(ctx context.Context) ([]models.WateringSchedule, error) {
	var schedules []models.WateringSchedule
	if err := r.db.Conn.WithContext(ctx).Order("seq asc").Find(&schedules).Error; err != nil {
		return nil, NewRepositoryError(SourceSchedules, err)
	}
	return schedules, nil
}

// SeedStore inserts the fixtures, skipping rows that already exist. Sensors
// and schedules are appended after the current rows to keep load order.
func SeedStore(ctx context.Context, d *db.DB, fixtures Fixtures) error {
	logger := common.GetLoggerWith(
		common.LoggerNameGardenCore,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryRepository),
	)

	err := d.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skipExisting := tx.Clauses(clause.OnConflict{DoNothing: true})

		if len(fixtures.Zones) > 0 {
			if err := skipExisting.Create(&fixtures.Zones).Error; err != nil {
				return err
			}
		}

		if len(fixtures.Sensors) > 0 {
			base, err := nextSeq(tx, &models.Sensor{})
			if err != nil {
				return err
			}
			sensors := slices.Clone(fixtures.Sensors)
			for i := range sensors {
				sensors[i].Seq = base + uint(i)
			}
			if err := skipExisting.Create(&sensors).Error; err != nil {
				return err
			}
		}

		if len(fixtures.Schedules) > 0 {
			base, err := nextSeq(tx, &models.WateringSchedule{})
			if err != nil {
				return err
			}
			schedules := slices.Clone(fixtures.Schedules)
			for i := range schedules {
				schedules[i].Seq = base + uint(i)
			}
			if err := skipExisting.Create(&schedules).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Seeded store",
		zap.Int("zones", len(fixtures.Zones)),
		zap.Int("sensors", len(fixtures.Sensors)),
		zap.Int("schedules", len(fixtures.Schedules)),
	)
	return nil
}

func nextSeq(tx *gorm.DB, model any) (uint, error) {
	var maxSeq uint
	if err := tx.Model(model).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}
