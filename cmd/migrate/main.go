package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-storefront/internal/config"
	"ms-storefront/internal/models"
)

// Development reset tool: drops and recreates the schema from the bun
// models and seeds a small catalog. Production deployments use the SQL
// migrations instead.
func main() {
	drop := flag.Bool("drop", false, "drop existing tables first")
	seed := flag.Bool("seed", true, "seed sample catalog data")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	if *drop {
		log.Println("Dropping tables...")
		dropTables(ctx, db)
	}

	log.Println("Creating tables...")
	createTables(ctx, db)

	if *seed {
		log.Println("Seeding sample data...")
		seedData(ctx, db)
	}

	log.Println("Done.")
}

func dropTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{
		(*models.Delivery)(nil),
		(*models.OrderItem)(nil),
		(*models.Order)(nil),
		(*models.Address)(nil),
		(*models.StoreSetting)(nil),
		(*models.Offer)(nil),
		(*models.Coupon)(nil),
		(*models.Product)(nil),
	}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{
		(*models.Product)(nil),
		(*models.Coupon)(nil),
		(*models.Offer)(nil),
		(*models.StoreSetting)(nil),
		(*models.Address)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Delivery)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}
}

func seedData(ctx context.Context, db *bun.DB) {
	settings := []models.StoreSetting{
		{Key: models.SettingStoreOpen, Value: "true", UpdatedAt: time.Now()},
		{Key: models.SettingPlatformFee, Value: "500", UpdatedAt: time.Now()},
		{Key: models.SettingSurgeFee, Value: "0", UpdatedAt: time.Now()},
		{Key: models.SettingDeliveryMode, Value: models.ModeManual, UpdatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&settings).Ignore().Exec(ctx)

	products := []models.Product{
		{Name: "Chicken Curry Cut", Cut: "curry cut", WeightG: 500, Price: 18000, Tags: "chicken,bestseller", IsAvailable: true, CreatedAt: time.Now()},
		{Name: "Chicken Boneless", Cut: "boneless", WeightG: 450, Price: 24000, Tags: "chicken", IsAvailable: true, CreatedAt: time.Now()},
		{Name: "Mutton Curry Cut", Cut: "curry cut", WeightG: 500, Price: 42000, Tags: "mutton", IsAvailable: true, CreatedAt: time.Now()},
		{Name: "Mutton Keema", Cut: "minced", WeightG: 250, Price: 26000, Tags: "mutton", IsAvailable: true, CreatedAt: time.Now()},
		{Name: "Fish Fillet", Cut: "fillet", WeightG: 300, Price: 32000, Tags: "fish", IsAvailable: true, CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&products).Ignore().Exec(ctx)

	coupons := []models.Coupon{
		{Code: "WELCOME10", DiscountType: models.DiscountTypePercentage, DiscountValue: 10, IsActive: true, CreatedAt: time.Now()},
		{Code: "FLAT50", DiscountType: models.DiscountTypeFixed, DiscountValue: 5000, IsActive: true, CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&coupons).Ignore().Exec(ctx)

	offers := []models.Offer{
		{Name: "Welcome offer", Description: "10% off your first order", CouponCode: "WELCOME10", IsActive: true, CreatedAt: time.Now()},
		{Name: "Flat 50 off", Description: "Flat 50 off on any order", CouponCode: "FLAT50", IsActive: true, CreatedAt: time.Now()},
	}
	_, _ = db.NewInsert().Model(&offers).Ignore().Exec(ctx)
}
